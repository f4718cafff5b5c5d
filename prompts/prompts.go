package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// MachineDetails is the structured equipment record embedded in the system
// prompt when the conversation mentions a known machine.
type MachineDetails struct {
	Code        string
	Name        string
	Description string
	Location    string
}

// ChatSystemData feeds the chat system prompt template.
type ChatSystemData struct {
	Today              string
	MentionedDocuments []string
	MentionedMachines  []string
	Machine            *MachineDetails
}

// RenderChatSystemPrompt renders the chat system prompt using embedded Go templates
func RenderChatSystemPrompt(data ChatSystemData) (string, error) {
	templateContent, err := templatesFS.ReadFile("templates/chat_system.md")
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("chat_system").Parse(string(templateContent))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
