package marketdata

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/valuation-engine/internal/models"
)

const fileProviderName = "file"

// companyRecord is one company entry of the fundamentals file
type companyRecord struct {
	models.FinancialState `yaml:",inline"`
	MarketPrice           float64 `yaml:"market_price"`
}

// fundamentalsFile is the YAML document read by FileProvider
type fundamentalsFile struct {
	Companies map[string]companyRecord `yaml:"companies"`
}

// RevenueRecord is one row of the revenue history CSV
type RevenueRecord struct {
	Ticker     string  `csv:"ticker"`
	FiscalYear int     `csv:"fiscal_year"`
	Revenue    float64 `csv:"revenue"`
}

// FileProvider serves fundamentals from a YAML file and optional CSV revenue history
type FileProvider struct {
	companies map[string]companyRecord
	observer  observer
}

// NewFileProvider loads the fundamentals file and, when historyPath is set, the revenue history
func NewFileProvider(path, historyPath string, logger *logrus.Logger) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fundamentals file: %w", err)
	}

	var doc fundamentalsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fundamentals file: %w", err)
	}

	companies := make(map[string]companyRecord, len(doc.Companies))
	for ticker, record := range doc.Companies {
		key := normalizeTicker(ticker)
		record.Ticker = key
		companies[key] = record
	}

	if historyPath != "" {
		history, err := LoadRevenueHistory(historyPath)
		if err != nil {
			return nil, err
		}
		for ticker, revenues := range history {
			record, ok := companies[ticker]
			if !ok || len(record.RevenueHistory) > 0 {
				continue
			}
			record.RevenueHistory = revenues
			companies[ticker] = record
		}
	}

	return &FileProvider{
		companies: companies,
		observer:  newObserver(fileProviderName, logger),
	}, nil
}

// LoadRevenueHistory reads revenue rows and groups them by ticker, oldest year first
func LoadRevenueHistory(path string) (map[string][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open revenue history: %w", err)
	}
	defer file.Close()

	var rows []*RevenueRecord
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse revenue history: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FiscalYear < rows[j].FiscalYear
	})

	history := make(map[string][]float64)
	for _, row := range rows {
		key := normalizeTicker(row.Ticker)
		history[key] = append(history[key], row.Revenue)
	}
	return history, nil
}

// FetchFinancialState returns the fundamentals of ticker
func (p *FileProvider) FetchFinancialState(ctx context.Context, ticker string) (state models.FinancialState, err error) {
	start := time.Now()
	defer func() { p.observer.observe(ticker, "fundamentals", start, err) }()

	if err = ctx.Err(); err != nil {
		return models.FinancialState{}, err
	}
	record, err := p.lookup(ticker)
	if err != nil {
		return models.FinancialState{}, err
	}
	if err = ValidateFinancialState(record.FinancialState); err != nil {
		return models.FinancialState{}, NewProviderError(fileProviderName, ErrCodeInvalidData, "invalid fundamentals for "+ticker, err)
	}
	return record.FinancialState, nil
}

// FetchMarketPrice returns the recorded market price of ticker
func (p *FileProvider) FetchMarketPrice(ctx context.Context, ticker string) (price float64, err error) {
	start := time.Now()
	defer func() { p.observer.observe(ticker, "quote", start, err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}
	record, err := p.lookup(ticker)
	if err != nil {
		return 0, err
	}
	if record.MarketPrice <= 0 {
		err = NewProviderError(fileProviderName, ErrCodeInvalidData, "no market price for "+ticker, ErrInvalidData)
		return 0, err
	}
	return record.MarketPrice, nil
}

// Tickers returns the tickers available in the file
func (p *FileProvider) Tickers() []string {
	tickers := make([]string, 0, len(p.companies))
	for ticker := range p.companies {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Name returns the provider name
func (p *FileProvider) Name() string {
	return fileProviderName
}

func (p *FileProvider) lookup(ticker string) (companyRecord, error) {
	record, ok := p.companies[normalizeTicker(ticker)]
	if !ok {
		return companyRecord{}, NewProviderError(fileProviderName, ErrCodeNotFound, ticker, ErrTickerNotFound)
	}
	return record, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
