package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatList(w io.Writer, images []ImageData) error
	FormatMonths(w io.Writer, grouped map[string][]ImageData) error
	FormatUpload(w io.Writer, outcome *UploadOutcome) error
	FormatDelete(w io.Writer, id string) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatList prints the gallery grouped by month, newest month first.
func (f *HumanFormatter) FormatList(w io.Writer, images []ImageData) error {
	if len(images) == 0 {
		_, _ = fmt.Fprintln(w, "No images uploaded yet")
		return nil
	}

	grouped := GroupByMonth(images)
	months := SortedMonths(grouped)

	for _, month := range months {
		items := grouped[month]
		noun := "images"
		if len(items) == 1 {
			noun = "image"
		}
		_, _ = fmt.Fprintf(w, "%s (%d %s)\n", MonthName(month), len(items), noun)
		_, _ = fmt.Fprintln(w, strings.Repeat("-", len(MonthName(month))))

		for i := range items {
			img := &items[i]
			_, _ = fmt.Fprintf(w, "  %s  %s\n", img.ID, img.Date.Format("2006-01-02 15:04"))
			if !f.Quiet {
				_, _ = fmt.Fprintf(w, "    %s\n", img.URL)
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	noun := "images"
	if len(images) == 1 {
		noun = "image"
	}
	_, _ = fmt.Fprintf(w, "%d %s total\n", len(images), noun)
	return nil
}

// FormatMonths prints the month navigation line: short labels newest first.
func (f *HumanFormatter) FormatMonths(w io.Writer, grouped map[string][]ImageData) error {
	months := SortedMonths(grouped)
	if len(months) == 0 {
		_, _ = fmt.Fprintln(w, "No images uploaded yet")
		return nil
	}

	for _, month := range months {
		_, _ = fmt.Fprintf(w, "%s  %-14s  %d\n", MonthShort(month), MonthName(month), len(grouped[month]))
	}
	return nil
}

// FormatUpload formats an upload outcome as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, outcome *UploadOutcome) error {
	for i := range outcome.Uploaded {
		img := &outcome.Uploaded[i]
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", img.ID, MonthName(img.MonthYear))
		}
	}
	for _, s := range outcome.Skipped {
		_, _ = fmt.Fprintf(w, "Skipped entry %d: %s\n", s.Index, s.Reason)
	}
	for path, reason := range outcome.Rejected {
		_, _ = fmt.Fprintf(w, "Rejected: %s - %s\n", path, reason)
	}
	return nil
}

// FormatDelete formats a delete result as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, id string) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Deleted: %s\n", id)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "API KEY")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, maskSecret(p.APIKey, showSecrets))
	}

	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatList formats the gallery as JSON grouped by month.
func (f *JSONFormatter) FormatList(w io.Writer, images []ImageData) error {
	grouped := GroupByMonth(images)
	months := SortedMonths(grouped)

	type monthGroup struct {
		Month  string      `json:"month"`
		Name   string      `json:"name"`
		Images []ImageData `json:"images"`
	}

	output := struct {
		Months []monthGroup `json:"months"`
		Total  int          `json:"total"`
	}{
		Months: make([]monthGroup, len(months)),
		Total:  len(images),
	}

	for i, month := range months {
		output.Months[i] = monthGroup{
			Month:  month,
			Name:   MonthName(month),
			Images: grouped[month],
		}
	}

	return writeJSON(w, output)
}

// FormatMonths formats the month navigation as JSON.
func (f *JSONFormatter) FormatMonths(w io.Writer, grouped map[string][]ImageData) error {
	months := SortedMonths(grouped)

	type monthEntry struct {
		Month string `json:"month"`
		Name  string `json:"name"`
		Short string `json:"short"`
		Count int    `json:"count"`
	}

	output := struct {
		Months []monthEntry `json:"months"`
	}{
		Months: make([]monthEntry, len(months)),
	}

	for i, month := range months {
		output.Months[i] = monthEntry{
			Month: month,
			Name:  MonthName(month),
			Short: MonthShort(month),
			Count: len(grouped[month]),
		}
	}

	return writeJSON(w, output)
}

// FormatUpload formats an upload outcome as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, outcome *UploadOutcome) error {
	return writeJSON(w, outcome)
}

// FormatDelete formats a delete result as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, id string) error {
	output := struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
	}{ID: id, Deleted: true}
	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{Error: err.Error()}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		APIKey   string `json:"api_key,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			APIKey:   maskSecret(p.APIKey, showSecrets),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
