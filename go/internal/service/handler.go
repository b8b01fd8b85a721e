package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "dynasty.ledger.v1.LedgerService"

const (
	ProcessTradeProcedure          = "/" + LedgerServiceName + "/ProcessTrade"
	ProcessCutProcedure            = "/" + LedgerServiceName + "/ProcessCut"
	ProcessSigningProcedure        = "/" + LedgerServiceName + "/ProcessSigning"
	ProcessSeasonRolloverProcedure = "/" + LedgerServiceName + "/ProcessSeasonRollover"
	BootstrapLeagueProcedure       = "/" + LedgerServiceName + "/BootstrapLeague"
	ValidateBudgetImpactProcedure  = "/" + LedgerServiceName + "/ValidateBudgetImpact"
	VerifyBudgetsProcedure         = "/" + LedgerServiceName + "/VerifyBudgets"
	ListTransactionsProcedure      = "/" + LedgerServiceName + "/ListTransactions"
	GetLeagueClockProcedure        = "/" + LedgerServiceName + "/GetLeagueClock"
	CreateFranchiseProcedure       = "/" + LedgerServiceName + "/CreateFranchise"
	ListFranchisesProcedure        = "/" + LedgerServiceName + "/ListFranchises"
	ListBudgetsProcedure           = "/" + LedgerServiceName + "/ListBudgets"
)

// NewLedgerServiceHandler builds an HTTP handler for every ledger procedure. It returns the
// path to mount it on.
func NewLedgerServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	handlers := map[string]http.Handler{
		ProcessTradeProcedure:          connect.NewUnaryHandler(ProcessTradeProcedure, svc.ProcessTrade, opts...),
		ProcessCutProcedure:            connect.NewUnaryHandler(ProcessCutProcedure, svc.ProcessCut, opts...),
		ProcessSigningProcedure:        connect.NewUnaryHandler(ProcessSigningProcedure, svc.ProcessSigning, opts...),
		ProcessSeasonRolloverProcedure: connect.NewUnaryHandler(ProcessSeasonRolloverProcedure, svc.ProcessSeasonRollover, opts...),
		BootstrapLeagueProcedure:       connect.NewUnaryHandler(BootstrapLeagueProcedure, svc.BootstrapLeague, opts...),
		ValidateBudgetImpactProcedure:  connect.NewUnaryHandler(ValidateBudgetImpactProcedure, svc.ValidateBudgetImpact, opts...),
		VerifyBudgetsProcedure:         connect.NewUnaryHandler(VerifyBudgetsProcedure, svc.VerifyBudgets, opts...),
		ListTransactionsProcedure:      connect.NewUnaryHandler(ListTransactionsProcedure, svc.ListTransactions, opts...),
		GetLeagueClockProcedure:        connect.NewUnaryHandler(GetLeagueClockProcedure, svc.GetLeagueClock, opts...),
		CreateFranchiseProcedure:       connect.NewUnaryHandler(CreateFranchiseProcedure, svc.CreateFranchise, opts...),
		ListFranchisesProcedure:        connect.NewUnaryHandler(ListFranchisesProcedure, svc.ListFranchises, opts...),
		ListBudgetsProcedure:           connect.NewUnaryHandler(ListBudgetsProcedure, svc.ListBudgets, opts...),
	}
	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// Client calls a LedgerService over connect.
type Client struct {
	processTrade          *connect.Client[ProcessTradeRequest, ProcessTradeResponse]
	processCut            *connect.Client[ProcessCutRequest, ProcessCutResponse]
	processSigning        *connect.Client[ProcessSigningRequest, ProcessSigningResponse]
	processSeasonRollover *connect.Client[ProcessSeasonRolloverRequest, ProcessSeasonRolloverResponse]
	bootstrapLeague       *connect.Client[BootstrapLeagueRequest, ProcessSeasonRolloverResponse]
	validateBudgetImpact  *connect.Client[ValidateBudgetImpactRequest, ValidateBudgetImpactResponse]
	verifyBudgets         *connect.Client[VerifyBudgetsRequest, VerifyBudgetsResponse]
	listTransactions      *connect.Client[ListTransactionsRequest, ListTransactionsResponse]
	getLeagueClock        *connect.Client[GetLeagueClockRequest, GetLeagueClockResponse]
	createFranchise       *connect.Client[CreateFranchiseRequest, CreateFranchiseResponse]
	listFranchises        *connect.Client[ListFranchisesRequest, ListFranchisesResponse]
	listBudgets           *connect.Client[ListBudgetsRequest, ListBudgetsResponse]
}

// NewClient creates a ledger client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		processTrade:          connect.NewClient[ProcessTradeRequest, ProcessTradeResponse](httpClient, baseURL+ProcessTradeProcedure, opts...),
		processCut:            connect.NewClient[ProcessCutRequest, ProcessCutResponse](httpClient, baseURL+ProcessCutProcedure, opts...),
		processSigning:        connect.NewClient[ProcessSigningRequest, ProcessSigningResponse](httpClient, baseURL+ProcessSigningProcedure, opts...),
		processSeasonRollover: connect.NewClient[ProcessSeasonRolloverRequest, ProcessSeasonRolloverResponse](httpClient, baseURL+ProcessSeasonRolloverProcedure, opts...),
		bootstrapLeague:       connect.NewClient[BootstrapLeagueRequest, ProcessSeasonRolloverResponse](httpClient, baseURL+BootstrapLeagueProcedure, opts...),
		validateBudgetImpact:  connect.NewClient[ValidateBudgetImpactRequest, ValidateBudgetImpactResponse](httpClient, baseURL+ValidateBudgetImpactProcedure, opts...),
		verifyBudgets:         connect.NewClient[VerifyBudgetsRequest, VerifyBudgetsResponse](httpClient, baseURL+VerifyBudgetsProcedure, opts...),
		listTransactions:      connect.NewClient[ListTransactionsRequest, ListTransactionsResponse](httpClient, baseURL+ListTransactionsProcedure, opts...),
		getLeagueClock:        connect.NewClient[GetLeagueClockRequest, GetLeagueClockResponse](httpClient, baseURL+GetLeagueClockProcedure, opts...),
		createFranchise:       connect.NewClient[CreateFranchiseRequest, CreateFranchiseResponse](httpClient, baseURL+CreateFranchiseProcedure, opts...),
		listFranchises:        connect.NewClient[ListFranchisesRequest, ListFranchisesResponse](httpClient, baseURL+ListFranchisesProcedure, opts...),
		listBudgets:           connect.NewClient[ListBudgetsRequest, ListBudgetsResponse](httpClient, baseURL+ListBudgetsProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	res, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) ProcessTrade(ctx context.Context, req *ProcessTradeRequest) (*ProcessTradeResponse, error) {
	return call(ctx, c.processTrade, req)
}

func (c *Client) ProcessCut(ctx context.Context, req *ProcessCutRequest) (*ProcessCutResponse, error) {
	return call(ctx, c.processCut, req)
}

func (c *Client) ProcessSigning(ctx context.Context, req *ProcessSigningRequest) (*ProcessSigningResponse, error) {
	return call(ctx, c.processSigning, req)
}

func (c *Client) ProcessSeasonRollover(ctx context.Context, req *ProcessSeasonRolloverRequest) (*ProcessSeasonRolloverResponse, error) {
	return call(ctx, c.processSeasonRollover, req)
}

func (c *Client) BootstrapLeague(ctx context.Context, req *BootstrapLeagueRequest) (*ProcessSeasonRolloverResponse, error) {
	return call(ctx, c.bootstrapLeague, req)
}

func (c *Client) ValidateBudgetImpact(ctx context.Context, req *ValidateBudgetImpactRequest) (*ValidateBudgetImpactResponse, error) {
	return call(ctx, c.validateBudgetImpact, req)
}

func (c *Client) VerifyBudgets(ctx context.Context, req *VerifyBudgetsRequest) (*VerifyBudgetsResponse, error) {
	return call(ctx, c.verifyBudgets, req)
}

func (c *Client) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	return call(ctx, c.listTransactions, req)
}

func (c *Client) GetLeagueClock(ctx context.Context) (*GetLeagueClockResponse, error) {
	return call(ctx, c.getLeagueClock, &GetLeagueClockRequest{})
}

func (c *Client) CreateFranchise(ctx context.Context, name string) (*CreateFranchiseResponse, error) {
	return call(ctx, c.createFranchise, &CreateFranchiseRequest{Name: name})
}

func (c *Client) ListFranchises(ctx context.Context) (*ListFranchisesResponse, error) {
	return call(ctx, c.listFranchises, &ListFranchisesRequest{})
}

func (c *Client) ListBudgets(ctx context.Context, req *ListBudgetsRequest) (*ListBudgetsResponse, error) {
	return call(ctx, c.listBudgets, req)
}
