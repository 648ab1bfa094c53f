package telephony

import (
	"encoding/xml"
	"fmt"
)

// Say speaks text to the caller in the given language.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Gather collects a spoken reply and posts it to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Input         string   `xml:"input,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Language      string   `xml:"language,attr"`
	Timeout       int      `xml:"timeout,attr"`
	Say           *Say
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Response is a cXML voice-response document. Verbs execute in struct
// field order: gather first, then fallback speech, then hangup.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Gather  *Gather
	Say     []Say
	Hangup  *Hangup
}

// NewGather builds a speech gather that reads the script and waits for
// the customer's answer with a bounded silence timeout.
func NewGather(actionURL, language, script string) *Gather {
	return &Gather{
		Action:        actionURL,
		Method:        "POST",
		Input:         "speech",
		SpeechTimeout: "auto",
		Language:      language,
		Timeout:       10,
		Say:           &Say{Language: language, Text: script},
	}
}

// AddSay appends a spoken line after any gather verb.
func (r *Response) AddSay(language, text string) {
	r.Say = append(r.Say, Say{Language: language, Text: text})
}

// Render serializes the document with the XML declaration telephony
// providers expect.
func (r *Response) Render() (string, error) {
	data, err := xml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal voice response: %w", err)
	}
	return xml.Header + string(data), nil
}
