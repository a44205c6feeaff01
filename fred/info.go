package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/fredsync"
)

// SeriesInfo returns the descriptive metadata FRED publishes for a series.
func (c *Client) SeriesInfo(ctx context.Context, code string) (fredsync.SeriesInfo, error) {
	// https://api.stlouisfed.org/fred/series?series_id=PAYEMS&...
	// {
	//   "seriess": [
	//     {
	//       "id": "PAYEMS",
	//       "title": "All Employees, Total Nonfarm",
	//       "frequency": "Monthly",
	//       "units": "Thousands of Persons",
	//       "seasonal_adjustment": "Seasonally Adjusted",
	//       ...
	var info fredsync.SeriesInfo

	q := url.Values{}
	q.Set("series_id", code)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")

	body, err := c.get(ctx, code, c.BaseURL+"/series?"+q.Encode())
	if err != nil {
		return info, err
	}

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return info, &fredsync.ProviderError{Kind: fredsync.KindFatal, Code: code, Err: fmt.Errorf("malformed series response: %w", err)}
	}

	// field reads one string field of the first (and only) series entry.
	field := func(name string) string {
		jval, err := jsonpath.Get("$.seriess[0]."+name, jobj)
		if err != nil {
			return ""
		}
		// jsonpath is never clear about whether it returns a list of one
		// answer or a single answer; keep the first one if any.
		if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
			jval = jlist[0]
		}
		s, _ := jval.(string)
		return s
	}

	info.Title = field("title")
	info.Units = field("units")
	info.Frequency = field("frequency")
	info.Seasonal = field("seasonal_adjustment")
	info.URL = SeriesURL(code)
	if info.Title == "" {
		return info, &fredsync.ProviderError{Kind: fredsync.KindFatal, Code: code, Err: fmt.Errorf("series response carries no series entry")}
	}
	return info, nil
}
