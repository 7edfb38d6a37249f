package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"docchat/types"

	"github.com/google/uuid"
)

const DataSourceTrigger = "@datasource"

// DataSourceStore is the slice of the persistence layer the dispatcher needs.
type DataSourceStore interface {
	ListDataSources(context.Context) ([]types.DataSource, error)
}

// DataSourceService resolves @datasource commands: read-only queries against
// external or internal data endpoints.
type DataSourceService struct {
	store  DataSourceStore
	client *http.Client
	logger *slog.Logger
}

func NewDataSourceService(st DataSourceStore) *DataSourceService {
	return &DataSourceService{
		store: st,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
	}
}

// DefaultDataSources are seeded on startup if absent.
func DefaultDataSources() []types.DataSource {
	return []types.DataSource{
		{
			ID:          uuid.New(),
			Name:        "Weather API",
			Description: "Get weather information for locations",
			Endpoint:    "https://api.openweathermap.org/data/2.5/weather",
			Parameters: map[string]string{
				"q":     "Required - City name",
				"units": "metric/imperial (default: metric)",
			},
			AuthRequired: true,
		},
		{
			ID:          uuid.New(),
			Name:        "User Profile",
			Description: "Get user profile information",
			Endpoint:    "/api/user/profile",
			Parameters: map[string]string{
				"user_id": "Optional - User ID (defaults to current user)",
			},
			AuthRequired: false,
		},
		{
			ID:          uuid.New(),
			Name:        "Stock Prices",
			Description: "Get current stock price information",
			Endpoint:    "https://api.marketdata.com/v1/quotes",
			Parameters: map[string]string{
				"symbol": "Required - Stock symbol (e.g., AAPL)",
				"fields": "Optional - Specific fields to return",
			},
			AuthRequired: true,
		},
	}
}

func (s *DataSourceService) Handle(ctx context.Context, message string) string {
	after := strings.TrimSpace(strings.ToLower(message))
	after = strings.TrimPrefix(after, DataSourceTrigger)
	after = strings.TrimSpace(after)

	if after == "" || after == "help" || after == "?" {
		return s.list(ctx)
	}

	sources, err := s.store.ListDataSources(ctx)
	if err != nil {
		s.logger.Error("[COMMAND] list data sources", "error", err)
		return "Data source service is not available at the moment. Please try again later."
	}

	for _, source := range sources {
		if strings.Contains(after, strings.ToLower(source.Name)) {
			return s.describe(ctx, source, after)
		}
	}

	return fmt.Sprintf("I couldn't find a data source matching '%s'.\n\n%s", after, s.list(ctx))
}

func (s *DataSourceService) list(ctx context.Context) string {
	sources, err := s.store.ListDataSources(ctx)
	if err != nil {
		s.logger.Error("[COMMAND] list data sources", "error", err)
		return "Failed to list data sources due to an error. Please try again later."
	}
	if len(sources) == 0 {
		return "No data sources are currently available. Please check back later."
	}

	var sb strings.Builder
	sb.WriteString("**Available Data Sources:**\n\n")
	for _, source := range sources {
		fmt.Fprintf(&sb, "- **%s**: %s\n", source.Name, source.Description)
	}
	sb.WriteString("\nTo use a data source, type `@datasource [name]`. For example: `@datasource Weather API`")
	return sb.String()
}

func (s *DataSourceService) describe(ctx context.Context, source types.DataSource, message string) string {
	if !mentionsAny(message, source.Parameters) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "**%s**\n%s\n\nParameters:\n", source.Name, source.Description)
		for _, param := range sortedKeys(source.Parameters) {
			fmt.Fprintf(&sb, "- %s: %s\n", param, source.Parameters[param])
		}

		sb.WriteString("\nTo query this data source, provide the required parameters. For example:\n")
		example := DataSourceTrigger + " " + source.Name
		for _, param := range sortedKeys(source.Parameters) {
			if strings.Contains(source.Parameters[param], "Required") {
				example += fmt.Sprintf(" %s=%s", param, exampleValue(param))
			}
		}
		fmt.Fprintf(&sb, "`%s`", example)
		return sb.String()
	}

	params := parseParams(message, source.Parameters)

	if missing := missingRequired(source.Parameters, params); len(missing) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "To query %s, the following required parameters are missing:\n", source.Name)
		for _, param := range missing {
			fmt.Fprintf(&sb, "- %s: %s\n", param, source.Parameters[param])
		}
		return sb.String()
	}

	result := s.Query(ctx, source.Endpoint, params)
	return fmt.Sprintf("**%s** query result:\n\n%s", source.Name, result)
}

// Query runs a read-only data source query and returns a human-readable
// result. It is also used by the direct query endpoint, bypassing the chat
// parsing.
func (s *DataSourceService) Query(ctx context.Context, endpoint string, params map[string]string) string {
	s.logger.Info("[COMMAND] querying data source", "endpoint", endpoint, "params", params)

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		switch {
		case strings.Contains(endpoint, "openweathermap"):
			if os.Getenv("OPENWEATHER_API_KEY") == "" {
				return "Weather API key not configured. Please set the OPENWEATHER_API_KEY environment variable."
			}
			params["appid"] = os.Getenv("OPENWEATHER_API_KEY")
			return s.externalGet(ctx, endpoint, params)
		case strings.Contains(endpoint, "marketdata"):
			if os.Getenv("STOCK_API_KEY") == "" {
				return "Stock API key not configured. Please set the STOCK_API_KEY environment variable."
			}
			return stockQuote(params["symbol"])
		default:
			return s.externalGet(ctx, endpoint, params)
		}
	}

	if endpoint == "/api/user/profile" {
		userID := params["user_id"]
		if userID == "" || userID == "current" {
			return "User Profile:\nName: Demo User\nEmail: demo@example.com\nRole: Administrator"
		}
		return fmt.Sprintf("User Profile (ID: %s):\nName: User %s\nEmail: user%s@example.com\nRole: User", userID, userID, userID)
	}

	return fmt.Sprintf("Query execution for endpoint %s is not implemented.", endpoint)
}

// stockQuote is a canned quote table standing in for a paid market data feed.
func stockQuote(symbol string) string {
	symbol = strings.ToUpper(symbol)
	switch symbol {
	case "AAPL":
		return fmt.Sprintf("Stock: %s\nPrice: $182.63\nChange: +1.2%%", symbol)
	case "MSFT":
		return fmt.Sprintf("Stock: %s\nPrice: $415.32\nChange: +0.5%%", symbol)
	case "GOOG":
		return fmt.Sprintf("Stock: %s\nPrice: $148.25\nChange: -0.3%%", symbol)
	default:
		return fmt.Sprintf("Stock: %s\nNo data available for this symbol.", symbol)
	}
}

func (s *DataSourceService) externalGet(ctx context.Context, endpoint string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("Failed to call external API: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Failed to call external API: %v", err)
	}
	defer resp.Body.Close()

	if strings.Contains(endpoint, "openweathermap") {
		return formatWeather(resp, params["q"])
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	return fmt.Sprintf("API response (status %d):\n%s", resp.StatusCode, string(raw))
}
