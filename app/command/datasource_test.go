package command

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"docchat/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDataSourceStore struct {
	sources []types.DataSource
	err     error
}

func (s *stubDataSourceStore) ListDataSources(context.Context) ([]types.DataSource, error) {
	return s.sources, s.err
}

func newDataSourceFixture() *stubDataSourceStore {
	return &stubDataSourceStore{sources: DefaultDataSources()}
}

func TestDataSourceHandle_BareCommandLists(t *testing.T) {
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource")

	assert.Contains(t, reply, "**Available Data Sources:**")
	assert.Contains(t, reply, "**Weather API**")
	assert.Contains(t, reply, "**User Profile**")
	assert.Contains(t, reply, "**Stock Prices**")
}

func TestDataSourceHandle_DescribeWithoutParams(t *testing.T) {
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource stock prices")

	assert.Contains(t, reply, "**Stock Prices**")
	assert.Contains(t, reply, "- symbol: Required - Stock symbol (e.g., AAPL)")
	assert.Contains(t, reply, "symbol=AAPL")
}

func TestDataSourceHandle_StockRequiresAPIKey(t *testing.T) {
	t.Setenv("STOCK_API_KEY", "")
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource stock prices symbol=AAPL")

	assert.Contains(t, reply, "Stock API key not configured")
}

func TestDataSourceHandle_StockQuote(t *testing.T) {
	t.Setenv("STOCK_API_KEY", "test-key")
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource stock prices symbol=AAPL")

	assert.Contains(t, reply, "**Stock Prices** query result:")
	assert.Contains(t, reply, "Stock: AAPL")
	assert.Contains(t, reply, "$182.63")
}

func TestDataSourceHandle_StockUnknownSymbol(t *testing.T) {
	t.Setenv("STOCK_API_KEY", "test-key")
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource stock prices symbol=ZZZZ")

	assert.Contains(t, reply, "No data available for this symbol.")
}

func TestDataSourceHandle_UserProfile(t *testing.T) {
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource user profile user_id=42")

	assert.Contains(t, reply, "User Profile (ID: 42)")
	assert.Contains(t, reply, "user42@example.com")
}

func TestDataSourceHandle_WeatherRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource weather api q=London")

	assert.Contains(t, reply, "Weather API key not configured")
}

func TestDataSourceHandle_ExternalGetQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		gotQuery = r.URL.Query().Get("region")
		w.Write([]byte(`{"rows":3}`))
	}))
	defer srv.Close()

	store := &stubDataSourceStore{sources: []types.DataSource{{
		ID:          uuid.New(),
		Name:        "Sales Report",
		Description: "Fetch sales figures",
		Endpoint:    srv.URL,
		Parameters:  map[string]string{"region": "Required - Sales region"},
	}}}
	svc := NewDataSourceService(store)

	reply := svc.Handle(context.Background(), "@datasource sales report region=emea")

	assert.Equal(t, "emea", gotQuery)
	assert.Contains(t, reply, "API response (status 200)")
	assert.Contains(t, reply, `{"rows":3}`)
}

func TestDataSourceHandle_UnknownNameFallsBackToList(t *testing.T) {
	svc := NewDataSourceService(newDataSourceFixture())

	reply := svc.Handle(context.Background(), "@datasource crystal ball")

	assert.Contains(t, reply, "couldn't find a data source matching")
	assert.Contains(t, reply, "**Available Data Sources:**")
}
