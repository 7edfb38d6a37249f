package command

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// formatWeather turns an OpenWeatherMap response into the one-line summary
// shown in chat.
func formatWeather(resp *http.Response, fallbackCity string) string {
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Weather API returned an error: %d", resp.StatusCode)
	}

	var data struct {
		Name    string `json:"name"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Sprintf("Failed to parse weather response: %v", err)
	}

	desc := "unknown"
	if len(data.Weather) > 0 {
		desc = data.Weather[0].Description
	}
	location := data.Name
	if location == "" {
		location = fallbackCity
	}
	return fmt.Sprintf("Weather in %s: %s, Temperature: %.1f°C", location, desc, data.Main.Temp)
}
