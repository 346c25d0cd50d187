package eventlog

import (
	"fmt"
	"strings"
)

// buildQueryScript renders the Get-WinEvent pipeline for q. The timestamp
// runs through ToString('o') so PowerShell 5 and 7 both emit RFC3339, and a
// NoMatchingEventsFound error exits cleanly with empty output so the caller
// can tell "nothing logged yet" apart from a real query failure.
func buildQueryScript(q Query) (string, error) {
	if strings.TrimSpace(q.Log) == "" {
		return "", fmt.Errorf("log name is empty")
	}
	if strings.TrimSpace(q.Provider) == "" {
		return "", fmt.Errorf("provider name is empty")
	}
	// Values are spliced into single-quoted PowerShell literals, which have
	// no escape sequences other than the doubled quote.
	if strings.Contains(q.Log, "'") {
		return "", fmt.Errorf("log name %q cannot contain a single quote", q.Log)
	}
	if strings.Contains(q.Provider, "'") {
		return "", fmt.Errorf("provider name %q cannot contain a single quote", q.Provider)
	}

	return fmt.Sprintf(`try { `+
		`Get-WinEvent -FilterHashtable @{LogName='%s'; ProviderName='%s'; Id=%d} -MaxEvents 1 -ErrorAction Stop | `+
		`Select-Object RecordId, Id, ProviderName, Message, @{Name='TimeCreated'; Expression={$_.TimeCreated.ToUniversalTime().ToString('o')}} | `+
		`ConvertTo-Json -Compress `+
		`} catch { `+
		`if ($_.FullyQualifiedErrorId -like 'NoMatchingEventsFound*') { exit 0 }; `+
		`Write-Error $_.Exception.Message; exit 1 `+
		`}`, q.Log, q.Provider, q.EventID), nil
}
