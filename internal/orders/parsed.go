package orders

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexValue carries a field that the extraction model may return either
// as a JSON number or as free text ("2" vs "দুইটা"). Absent values have
// both Numeric=false and Text="".
type FlexValue struct {
	Number  float64
	Text    string
	Numeric bool
}

// IsZero reports whether the value is absent.
func (v FlexValue) IsZero() bool {
	return !v.Numeric && v.Text == ""
}

// String renders the value for interpolation into spoken text.
func (v FlexValue) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

func (v FlexValue) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return json.Marshal(v.Number)
	}
	if v.Text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

func (v *FlexValue) UnmarshalJSON(data []byte) error {
	*v = FlexValue{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.Text = s
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		// Non-string, non-number (object/array) replies are kept verbatim.
		v.Text = trimmed
		return nil
	}
	v.Number = n
	v.Numeric = true
	return nil
}

// Parsed is the structured order record extracted from the raw message.
// Every field may be absent; the script builder substitutes defaults.
type Parsed struct {
	CustomerName string
	Quantity     FlexValue
	Color        string
	Size         string
	PriceTotal   FlexValue
	Phone        string
	Address      string
	OtherNotes   string
}

// MarshalJSON writes every key, with null for absent fields, so API
// consumers see a stable shape.
func (p Parsed) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"customer_name": nullable(p.CustomerName),
		"quantity":      p.Quantity,
		"color":         nullable(p.Color),
		"size":          nullable(p.Size),
		"price_total":   p.PriceTotal,
		"phone":         nullable(p.Phone),
		"address":       nullable(p.Address),
		"other_notes":   nullable(p.OtherNotes),
	}
	return json.Marshal(out)
}

// UnmarshalJSON tolerates the loose shapes the extraction model emits:
// numbers where strings are expected, arrays of sizes, explicit nulls.
func (p *Parsed) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.CustomerName = readString(raw["customer_name"])
	p.Color = readString(raw["color"])
	p.Size = readSize(raw["size"])
	p.Phone = readString(raw["phone"])
	p.Address = readString(raw["address"])
	p.OtherNotes = readString(raw["other_notes"])
	if msg, ok := raw["quantity"]; ok {
		if err := p.Quantity.UnmarshalJSON(msg); err != nil {
			return err
		}
	} else {
		p.Quantity = FlexValue{}
	}
	if msg, ok := raw["price_total"]; ok {
		if err := p.PriceTotal.UnmarshalJSON(msg); err != nil {
			return err
		}
	} else {
		p.PriceTotal = FlexValue{}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func readString(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(msg, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	trimmed := strings.TrimSpace(string(msg))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

// readSize additionally accepts an array of sizes ("M" and "L" in one
// order) and joins them for the recap.
func readSize(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	var list []json.RawMessage
	if err := json.Unmarshal(msg, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := readString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return readString(msg)
}
