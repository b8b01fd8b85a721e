package rules

import (
	"fmt"
	"os"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/mcdev12/dynasty-ledger/go/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RFAPolicy decides which expiring contracts leave RFA rights behind.
type RFAPolicy struct {
	FromSeason int `yaml:"from_season"`
	MinLength  int `yaml:"min_length"`
	MaxLength  int `yaml:"max_length"` // 0 means no upper bound
}

// Converts reports whether a contract of the given length converts to RFA rights.
func (p RFAPolicy) Converts(length int) bool {
	if length < p.MinLength {
		return false
	}
	return p.MaxLength == 0 || length <= p.MaxLength
}

// Calendar holds month-day templates ("MM-DD") for the default key dates of a season.
// Dates earlier in the year than the auction fall in the following calendar year.
type Calendar struct {
	Timezone      string `yaml:"timezone"`
	Auction       string `yaml:"auction"`
	CutDay        string `yaml:"cut_day"`
	TradeDeadline string `yaml:"trade_deadline"`
	PlayoffStart  string `yaml:"playoff_start"`
	SeasonEnd     string `yaml:"season_end"`
}

// Rules is the league constitution the ledger enforces.
type Rules struct {
	BaseAmount        int         `yaml:"base_amount"`
	RosterLimit       int         `yaml:"roster_limit"`
	DraftRounds       int         `yaml:"draft_rounds"`
	TradeCashHorizon  int         `yaml:"trade_cash_horizon"`
	MaxContractLength int         `yaml:"max_contract_length"`
	BuyOutPercentages []string    `yaml:"buy_out_percentages"`
	RFAPolicies       []RFAPolicy `yaml:"rfa_policies"`
	Calendar          Calendar    `yaml:"calendar"`

	buyOutTable []decimal.Decimal
	location    *time.Location
}

// Default returns the rules the league has played under since 2019.
func Default() *Rules {
	r := &Rules{
		BaseAmount:        1000,
		RosterLimit:       28,
		DraftRounds:       10,
		TradeCashHorizon:  2,
		MaxContractLength: 3,
		BuyOutPercentages: []string{"0.60", "0.30", "0.15"},
		RFAPolicies: []RFAPolicy{
			{FromSeason: 0, MinLength: 1, MaxLength: 0},
			{FromSeason: 2019, MinLength: 2, MaxLength: 3},
		},
		Calendar: Calendar{
			Timezone:      "America/New_York",
			Auction:       "08-20",
			CutDay:        "09-04",
			TradeDeadline: "11-15",
			PlayoffStart:  "12-14",
			SeasonEnd:     "01-06",
		},
	}
	if err := r.compile(); err != nil {
		panic(err)
	}
	return r
}

// Load reads a YAML rules file on top of the defaults.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML rules on top of the defaults.
func Parse(data []byte) (*Rules, error) {
	r := Default()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) compile() error {
	if r.BaseAmount <= 0 {
		return fmt.Errorf("base_amount must be positive")
	}
	if r.RosterLimit <= 0 {
		return fmt.Errorf("roster_limit must be positive")
	}
	if r.DraftRounds <= 0 {
		return fmt.Errorf("draft_rounds must be positive")
	}
	if r.TradeCashHorizon < 0 {
		return fmt.Errorf("trade_cash_horizon cannot be negative")
	}
	if len(r.RFAPolicies) == 0 {
		return fmt.Errorf("at least one rfa policy is required")
	}

	table := make([]decimal.Decimal, len(r.BuyOutPercentages))
	for i, s := range r.BuyOutPercentages {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid buy-out percentage %q: %w", s, err)
		}
		if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("buy-out percentage %q must be between 0 and 1", s)
		}
		table[i] = d
	}
	r.buyOutTable = table

	sort.Slice(r.RFAPolicies, func(i, j int) bool {
		return r.RFAPolicies[i].FromSeason < r.RFAPolicies[j].FromSeason
	})

	loc := time.UTC
	if r.Calendar.Timezone != "" {
		l, err := time.LoadLocation(r.Calendar.Timezone)
		if err != nil {
			return fmt.Errorf("invalid calendar timezone: %w", err)
		}
		loc = l
	}
	r.location = loc

	for _, md := range []string{r.Calendar.Auction, r.Calendar.CutDay, r.Calendar.TradeDeadline, r.Calendar.PlayoffStart, r.Calendar.SeasonEnd} {
		if _, _, err := parseMonthDay(md); err != nil {
			return err
		}
	}
	return nil
}

// BuyOutTable returns the per-contract-year buy-out percentages.
func (r *Rules) BuyOutTable() []decimal.Decimal {
	return r.buyOutTable
}

// RFAPolicyFor returns the policy in force for contracts expiring in season.
func (r *Rules) RFAPolicyFor(season int) RFAPolicy {
	policy := r.RFAPolicies[0]
	for _, p := range r.RFAPolicies {
		if p.FromSeason <= season {
			policy = p
		}
	}
	return policy
}

// TradeCashSeasons returns the first and last season trade cash may target.
func (r *Rules) TradeCashSeasons(current int) (int, int) {
	return current, current + r.TradeCashHorizon
}

// DefaultKeyDates lays the calendar template over season.
func (r *Rules) DefaultKeyDates(season int) models.KeyDates {
	auctionMonth, auctionDay, _ := parseMonthDay(r.Calendar.Auction)
	at := func(md string) time.Time {
		m, d, _ := parseMonthDay(md)
		year := season
		if m < auctionMonth || (m == auctionMonth && d < auctionDay) {
			year++
		}
		return time.Date(year, m, d, 0, 0, 0, 0, r.location)
	}
	return models.KeyDates{
		Auction:       at(r.Calendar.Auction),
		CutDay:        at(r.Calendar.CutDay),
		TradeDeadline: at(r.Calendar.TradeDeadline),
		PlayoffStart:  at(r.Calendar.PlayoffStart),
		SeasonEnd:     at(r.Calendar.SeasonEnd),
	}
}

func parseMonthDay(md string) (time.Month, int, error) {
	t, err := time.Parse("01-02", md)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid calendar date %q: %w", md, err)
	}
	return t.Month(), t.Day(), nil
}
