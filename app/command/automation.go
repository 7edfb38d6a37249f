package command

import (
	"context"
	"encoding/json"
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

// AutomationTrigger is the prefix that routes a chat message to the
// automation dispatcher instead of document retrieval.
const AutomationTrigger = "@automation"

// AutomationStore is the slice of the persistence layer the dispatcher needs.
type AutomationStore interface {
	ListAutomations(context.Context) ([]types.Automation, error)
}

// AutomationService resolves @automation commands against the automations
// stored in the database and executes them.
type AutomationService struct {
	store  AutomationStore
	client *http.Client
	logger *slog.Logger
}

func NewAutomationService(st AutomationStore) *AutomationService {
	return &AutomationService{
		store: st,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: slog.Default(),
	}
}

// DefaultAutomations are seeded on startup if absent.
func DefaultAutomations() []types.Automation {
	return []types.Automation{
		{
			ID:          uuid.New(),
			Name:        "Weather Check",
			Description: "Get the current weather for a given location",
			Endpoint:    "https://api.openweathermap.org/data/2.5/weather",
			Parameters: map[string]string{
				"q":     "Required - City name",
				"appid": "API key from environment",
				"units": "metric",
			},
		},
		{
			ID:          uuid.New(),
			Name:        "Send Email",
			Description: "Send an email notification",
			Endpoint:    "/api/send_email",
			Parameters: map[string]string{
				"to":      "Required - Recipient email",
				"subject": "Required - Email subject",
				"body":    "Required - Email body",
			},
		},
		{
			ID:          uuid.New(),
			Name:        "Create Task",
			Description: "Create a new task in task management system",
			Endpoint:    "/api/create_task",
			Parameters: map[string]string{
				"title":       "Required - Task title",
				"description": "Task description",
				"due_date":    "Due date (YYYY-MM-DD)",
				"priority":    "Priority (low, medium, high)",
			},
		},
	}
}

// Handle processes an @automation message and returns the assistant reply.
// Every path returns a human-readable answer rather than an error.
func (s *AutomationService) Handle(ctx context.Context, message string) string {
	after := strings.TrimSpace(strings.ToLower(message))
	after = strings.TrimPrefix(after, AutomationTrigger)
	after = strings.TrimSpace(after)

	if after == "" || after == "help" || after == "?" {
		return s.list(ctx)
	}

	autos, err := s.store.ListAutomations(ctx)
	if err != nil {
		s.logger.Error("[COMMAND] list automations", "error", err)
		return "Automation service is not available at the moment. Please try again later."
	}

	for _, auto := range autos {
		if strings.Contains(after, strings.ToLower(auto.Name)) {
			return s.describe(ctx, auto, after)
		}
	}

	return fmt.Sprintf("I couldn't find an automation matching '%s'.\n\n%s", after, s.list(ctx))
}

func (s *AutomationService) list(ctx context.Context) string {
	autos, err := s.store.ListAutomations(ctx)
	if err != nil {
		s.logger.Error("[COMMAND] list automations", "error", err)
		return "Failed to list automations due to an error. Please try again later."
	}
	if len(autos) == 0 {
		return "No automations are currently available. Please check back later."
	}

	var sb strings.Builder
	sb.WriteString("Available automations:\n\n")
	for _, auto := range autos {
		fmt.Fprintf(&sb, "- **%s**: %s\n", auto.Name, auto.Description)
	}
	sb.WriteString("\nTo use an automation, type '@automation <name>' for more details.")
	return sb.String()
}

func (s *AutomationService) describe(ctx context.Context, auto types.Automation, message string) string {
	if !mentionsAny(message, auto.Parameters) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "**%s**\n%s\n\nParameters:\n", auto.Name, auto.Description)
		for _, param := range sortedKeys(auto.Parameters) {
			fmt.Fprintf(&sb, "- %s: %s\n", param, auto.Parameters[param])
		}

		sb.WriteString("\nTo execute this automation, provide the required parameters. For example:\n")
		example := AutomationTrigger + " " + auto.Name
		for _, param := range sortedKeys(auto.Parameters) {
			if strings.Contains(auto.Parameters[param], "Required") {
				example += fmt.Sprintf(" %s=%s", param, exampleValue(param))
			}
		}
		fmt.Fprintf(&sb, "`%s`", example)
		return sb.String()
	}

	params := parseParams(message, auto.Parameters)

	if missing := missingRequired(auto.Parameters, params); len(missing) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "To use the %s automation, the following required parameters are missing:\n", auto.Name)
		for _, param := range missing {
			fmt.Fprintf(&sb, "- %s: %s\n", param, auto.Parameters[param])
		}
		return sb.String()
	}

	result := s.Execute(ctx, auto.Endpoint, params)
	return fmt.Sprintf("**%s** execution result:\n\n%s", auto.Name, result)
}

// Execute runs an automation against its endpoint and returns a
// human-readable result. It is also used by the direct trigger endpoint,
// bypassing the chat parsing.
func (s *AutomationService) Execute(ctx context.Context, endpoint string, params map[string]string) string {
	s.logger.Info("[COMMAND] executing automation", "endpoint", endpoint, "params", params)

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		if strings.Contains(endpoint, "openweathermap") {
			return s.weatherQuery(ctx, endpoint, params)
		}
		return s.externalPost(ctx, endpoint, params)
	}

	// Internal endpoints are acknowledged without side effects; the real
	// integrations live behind these paths in deployment.
	switch endpoint {
	case "/api/send_email":
		return fmt.Sprintf("Email would be sent to %s with subject '%s'", params["to"], params["subject"])
	case "/api/create_task":
		priority := params["priority"]
		if priority == "" {
			priority = "medium"
		}
		due := params["due_date"]
		if due == "" {
			due = "Not specified"
		}
		return fmt.Sprintf("Task '%s' would be created with priority '%s' and due date '%s'", params["title"], priority, due)
	case "/api/restart_service":
		if params["service_name"] == "" {
			return "Missing required service_name parameter."
		}
		return fmt.Sprintf("Service '%s' would be restarted", params["service_name"])
	default:
		return fmt.Sprintf("Unknown internal endpoint: %s", endpoint)
	}
}

func (s *AutomationService) weatherQuery(ctx context.Context, endpoint string, params map[string]string) string {
	apiKey := params["appid"]
	if apiKey == "" {
		apiKey = os.Getenv("OPENWEATHER_API_KEY")
	}
	if apiKey == "" {
		return "Weather API key not configured. Please set the OPENWEATHER_API_KEY environment variable."
	}

	city := params["q"]
	if city == "" {
		city = "London"
	}
	units := params["units"]
	if units == "" {
		units = "metric"
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", apiKey)
	q.Set("units", units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("Failed to call external API: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Failed to call external API: %v", err)
	}
	defer resp.Body.Close()

	return formatWeather(resp, city)
}

func (s *AutomationService) externalPost(ctx context.Context, endpoint string, params map[string]string) string {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("Failed to call external API: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Sprintf("Failed to call external API: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Failed to call external API: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Sprintf("API response (status %d):\n%s", resp.StatusCode, string(raw))
}
