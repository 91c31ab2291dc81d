// Package mcp exposes the chronicle vault and the resonance roller as
// MCP tools over the official go-sdk server.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chronicler/internal/logging"
	"chronicler/internal/resonance"
	"chronicler/internal/vault"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// unaffiliated renders the empty organization in tool output and is
// accepted back as the organization of root-level characters.
const unaffiliated = "Unaffiliated"

// Server wraps the MCP SDK server around the vault and a shared
// resonance source. All tool handlers are stateless and safe for
// concurrent dispatch: the vault is read-only and the source is
// expected to be the locked variant.
type Server struct {
	MCPServer *sdkmcp.Server

	vault *vault.Vault
	src   resonance.Source
	log   *slog.Logger
}

// NewServer creates the MCP server with all chronicle tools registered.
func NewServer(v *vault.Vault, src resonance.Source) *Server {
	s := &Server{
		vault: v,
		src:   src,
		log:   logging.New("mcp"),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "chronicler", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_locations",
		Description: "Get a list of all available campaign locations",
	}, s.handleListLocations)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_location",
		Description: "Get detailed information about a specific location by name",
	}, s.handleGetLocation)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_characters",
		Description: "Get all campaign characters grouped by organization",
	}, s.handleListCharacters)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_character",
		Description: "Get detailed information about a character by name and organization",
	}, s.handleGetCharacter)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_story_so_far",
		Description: "Get the running narrative summary of the chronicle so far",
	}, s.handleGetStorySoFar)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "victims_resonance",
		Description: "Roll the resonance of a feeding victim for a given mood",
	}, s.handleVictimsResonance)
}

// textResult builds a plain text tool response. Recoverable misses and
// argument problems come back this way, never as protocol faults.
func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

// --- Tool input/output types ---

type listLocationsInput struct{}

type listLocationsOutput struct {
	Locations []string `json:"locations"`
	Count     int      `json:"count"`
}

type getLocationInput struct {
	Name string `json:"name" jsonschema:"the name of the location to retrieve"`
}

type getLocationOutput struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

type listCharactersInput struct{}

type characterEntry struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

type listCharactersOutput struct {
	Characters []characterEntry `json:"characters"`
	Count      int              `json:"count"`
}

type getCharacterInput struct {
	Name         string `json:"name" jsonschema:"the name of the character to retrieve"`
	Organization string `json:"organization" jsonschema:"the organization folder the character belongs to (Unaffiliated for none)"`
}

type getCharacterOutput struct {
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Content      string `json:"content,omitempty"`
	Error        string `json:"error,omitempty"`
}

type getStorySoFarInput struct{}

type getStorySoFarOutput struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

type victimsResonanceInput struct {
	Mood string `json:"mood" jsonschema:"victim mood: Choleric, Melancholic, Phlegmatic or Sanguine"`
}

type victimsResonanceOutput struct {
	Mood      string `json:"mood,omitempty"`
	Level     string `json:"level,omitempty"`
	Dyscrasia string `json:"dyscrasia,omitempty"`
	Error     string `json:"error,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleListLocations(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listLocationsInput) (*sdkmcp.CallToolResult, listLocationsOutput, error) {
	locations, err := s.vault.ListLocations()
	if err != nil {
		return nil, listLocationsOutput{}, fmt.Errorf("list_locations: %w", err)
	}

	if len(locations) == 0 {
		return textResult("No locations found. The Locations directory is empty or doesn't exist."),
			listLocationsOutput{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available locations (%d):\n", len(locations))
	for _, loc := range locations {
		fmt.Fprintf(&b, "- %s\n", loc)
	}

	return textResult(strings.TrimRight(b.String(), "\n")), listLocationsOutput{
		Locations: locations,
		Count:     len(locations),
	}, nil
}

func (s *Server) handleGetLocation(ctx context.Context, _ *sdkmcp.CallToolRequest, input getLocationInput) (*sdkmcp.CallToolResult, getLocationOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return textResult("Error: 'name' parameter is required"),
			getLocationOutput{Error: "name is required"}, nil
	}

	content, err := s.vault.ReadLocation(input.Name)
	if errors.Is(err, vault.ErrNotFound) {
		available, listErr := s.vault.ListLocations()
		if listErr != nil {
			return nil, getLocationOutput{}, fmt.Errorf("get_location: %w", listErr)
		}
		availableText := "none"
		if len(available) > 0 {
			availableText = strings.Join(available, ", ")
		}
		s.log.Info("location miss", "name", input.Name)
		return textResult(fmt.Sprintf("Error: %s\n\nAvailable locations: %s", err, availableText)),
			getLocationOutput{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, getLocationOutput{}, fmt.Errorf("get_location: %w", err)
	}

	return textResult(fmt.Sprintf("# %s\n\n%s", input.Name, content)), getLocationOutput{
		Name:    input.Name,
		Content: content,
	}, nil
}

func (s *Server) handleListCharacters(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listCharactersInput) (*sdkmcp.CallToolResult, listCharactersOutput, error) {
	chars, err := s.vault.ListCharacters()
	if err != nil {
		return nil, listCharactersOutput{}, fmt.Errorf("list_characters: %w", err)
	}

	if len(chars) == 0 {
		return textResult("No characters found. The Characters directory is empty or doesn't exist."),
			listCharactersOutput{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available characters (%d):\n", len(chars))
	entries := make([]characterEntry, 0, len(chars))
	currentOrg := "\x00" // sentinel distinct from any real organization
	for _, c := range chars {
		if c.Organization != currentOrg {
			currentOrg = c.Organization
			fmt.Fprintf(&b, "\n## %s\n", displayOrg(c.Organization))
		}
		fmt.Fprintf(&b, "- %s\n", c.Name)
		entries = append(entries, characterEntry{
			Name:         c.Name,
			Organization: displayOrg(c.Organization),
		})
	}

	return textResult(strings.TrimRight(b.String(), "\n")), listCharactersOutput{
		Characters: entries,
		Count:      len(entries),
	}, nil
}

func (s *Server) handleGetCharacter(ctx context.Context, _ *sdkmcp.CallToolRequest, input getCharacterInput) (*sdkmcp.CallToolResult, getCharacterOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return textResult("Error: 'name' parameter is required"),
			getCharacterOutput{Error: "name is required"}, nil
	}
	if strings.TrimSpace(input.Organization) == "" {
		return textResult("Error: 'organization' parameter is required"),
			getCharacterOutput{Error: "organization is required"}, nil
	}

	org := input.Organization
	if strings.EqualFold(org, unaffiliated) {
		org = ""
	}

	content, err := s.vault.ReadCharacter(input.Name, org)
	if errors.Is(err, vault.ErrNotFound) {
		s.log.Info("character miss", "name", input.Name, "organization", input.Organization)
		suggestion, suggErr := s.characterSuggestions(org)
		if suggErr != nil {
			return nil, getCharacterOutput{}, fmt.Errorf("get_character: %w", suggErr)
		}
		return textResult(fmt.Sprintf("Error: %s\n\n%s", err, suggestion)),
			getCharacterOutput{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, getCharacterOutput{}, fmt.Errorf("get_character: %w", err)
	}

	return textResult(fmt.Sprintf("# %s\n\n%s", input.Name, content)), getCharacterOutput{
		Name:         input.Name,
		Organization: displayOrg(org),
		Content:      content,
	}, nil
}

// characterSuggestions lists characters sharing the missed character's
// organization, falling back to all known organizations when the
// organization itself is unknown.
func (s *Server) characterSuggestions(org string) (string, error) {
	chars, err := s.vault.ListCharacters()
	if err != nil {
		return "", err
	}

	var sameOrg []string
	for _, c := range chars {
		if c.Organization == org {
			sameOrg = append(sameOrg, c.Name)
		}
	}
	if len(sameOrg) > 0 {
		return fmt.Sprintf("Characters in %s: %s", displayOrg(org), strings.Join(sameOrg, ", ")), nil
	}

	orgs, err := s.vault.ListOrganizations()
	if err != nil {
		return "", err
	}
	if len(orgs) == 0 {
		return "No characters are known.", nil
	}
	display := make([]string, len(orgs))
	for i, o := range orgs {
		display[i] = displayOrg(o)
	}
	return fmt.Sprintf("Known organizations: %s", strings.Join(display, ", ")), nil
}

func (s *Server) handleGetStorySoFar(ctx context.Context, _ *sdkmcp.CallToolRequest, _ getStorySoFarInput) (*sdkmcp.CallToolResult, getStorySoFarOutput, error) {
	content, err := s.vault.ReadStorySoFar()
	if errors.Is(err, vault.ErrNotFound) {
		return textResult("No story summary found. The sessions directory has no __result.md file yet."),
			getStorySoFarOutput{Error: err.Error()}, nil
	}
	if err != nil {
		return nil, getStorySoFarOutput{}, fmt.Errorf("get_story_so_far: %w", err)
	}

	return textResult(content), getStorySoFarOutput{Content: content}, nil
}

func (s *Server) handleVictimsResonance(ctx context.Context, _ *sdkmcp.CallToolRequest, input victimsResonanceInput) (*sdkmcp.CallToolResult, victimsResonanceOutput, error) {
	if strings.TrimSpace(input.Mood) == "" {
		return textResult(fmt.Sprintf("Error: 'mood' parameter is required. Valid moods: %s", resonance.MoodNames())),
			victimsResonanceOutput{Error: "mood is required"}, nil
	}

	mood, err := resonance.ParseMood(input.Mood)
	if err != nil {
		return textResult(fmt.Sprintf("Error: %s", err)),
			victimsResonanceOutput{Error: err.Error()}, nil
	}

	result := resonance.Resolve(mood, s.src)
	dyscrasia := result.Dyscrasia
	if dyscrasia == "" {
		dyscrasia = "None"
	}
	s.log.Debug("resonance rolled", "mood", mood, "level", result.Level, "dyscrasia", dyscrasia)

	return textResult(fmt.Sprintf("Resonance: %s\nDyscrasia: %s", result.Level, dyscrasia)),
		victimsResonanceOutput{
			Mood:      string(mood),
			Level:     result.Level.String(),
			Dyscrasia: dyscrasia,
		}, nil
}

// displayOrg renders the empty organization as Unaffiliated.
func displayOrg(org string) string {
	if org == "" {
		return unaffiliated
	}
	return org
}
