package mcp_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chronicler/internal/config"
	mcpserver "chronicler/internal/mcp"
	"chronicler/internal/resonance"
	"chronicler/internal/vault"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
	os.Exit(m.Run())
}

// seqSource replays a fixed sequence of die faces and one unit draw.
type seqSource struct {
	faces []int
	unit  float64
}

func (s *seqSource) IntN(n int) int {
	face := s.faces[0]
	s.faces = s.faces[1:]
	return face - 1
}

func (s *seqSource) Float64() float64 { return s.unit }

// newTestVault builds a vault over temp dirs, returning it with the
// config so tests can drop fixture files in.
func newTestVault(t *testing.T) (*vault.Vault, config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		LocationsDir:  filepath.Join(root, "Locations"),
		CharactersDir: filepath.Join(root, "Characters"),
		SessionsDir:   filepath.Join(root, "Sessions"),
	}
	for _, dir := range []string{cfg.LocationsDir, cfg.CharactersDir, cfg.SessionsDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return vault.New(cfg), cfg
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

// callToolText invokes a tool and returns its first text content block.
func callToolText(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		t.Fatalf("CallTool(%s) returned protocol error", name)
	}
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatalf("CallTool(%s): no text content in result", name)
	return ""
}

func newSession(t *testing.T, src resonance.Source) (*sdkmcp.ClientSession, config.Config) {
	t.Helper()
	v, cfg := newTestVault(t)
	if src == nil {
		src = resonance.NewSource(1)
	}
	srv := mcpserver.NewServer(v, src)
	session := connectInMemory(t, context.Background(), srv)
	return session, cfg
}

func TestServer_ToolDiscovery(t *testing.T) {
	session, _ := newSession(t, nil)
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := map[string]bool{
		"list_locations":    false,
		"get_location":      false,
		"list_characters":   false,
		"get_character":     false,
		"get_story_so_far":  false,
		"victims_resonance": false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %q not found in ListTools", name)
		}
	}
}

func TestListLocations(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.LocationsDir, "B.md"), "b")
	writeFile(t, filepath.Join(cfg.LocationsDir, "A.md"), "a")

	text := callToolText(t, ctx, session, "list_locations", nil)
	want := "Available locations (2):\n- A\n- B"
	if text != want {
		t.Errorf("list_locations = %q, want %q", text, want)
	}
}

func TestListLocations_Empty(t *testing.T) {
	session, _ := newSession(t, nil)
	ctx := context.Background()

	text := callToolText(t, ctx, session, "list_locations", nil)
	if !strings.Contains(text, "No locations found") {
		t.Errorf("expected no-locations message, got %q", text)
	}
}

func TestGetLocation(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.LocationsDir, "Elysium.md"), "Neutral ground.")

	text := callToolText(t, ctx, session, "get_location", map[string]any{"name": "Elysium"})
	want := "# Elysium\n\nNeutral ground."
	if text != want {
		t.Errorf("get_location = %q, want %q", text, want)
	}
}

func TestGetLocation_MissSuggestsAvailable(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.LocationsDir, "Elysium.md"), "x")
	writeFile(t, filepath.Join(cfg.LocationsDir, "Rack.md"), "y")

	text := callToolText(t, ctx, session, "get_location", map[string]any{"name": "Atlantis"})
	if !strings.Contains(text, `location "Atlantis" not found`) {
		t.Errorf("miss text should identify the name, got %q", text)
	}
	if !strings.Contains(text, "Available locations: Elysium, Rack") {
		t.Errorf("miss text should list available locations, got %q", text)
	}
}

func TestGetLocation_NameRequired(t *testing.T) {
	session, _ := newSession(t, nil)
	ctx := context.Background()

	text := callToolText(t, ctx, session, "get_location", map[string]any{"name": "  "})
	if !strings.Contains(text, "'name' parameter is required") {
		t.Errorf("expected required-argument error, got %q", text)
	}
}

func TestListCharacters_GroupedByOrganization(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.CharactersDir, "camarilla", "P.md"), "p")
	writeFile(t, filepath.Join(cfg.CharactersDir, "camarilla", "__gm.md"), "hidden")
	writeFile(t, filepath.Join(cfg.CharactersDir, "anarchs", "R.md"), "r")
	writeFile(t, filepath.Join(cfg.CharactersDir, "Drifter.md"), "d")

	text := callToolText(t, ctx, session, "list_characters", nil)
	want := "Available characters (3):\n\n## Unaffiliated\n- Drifter\n\n## anarchs\n- R\n\n## camarilla\n- P"
	if text != want {
		t.Errorf("list_characters = %q, want %q", text, want)
	}
}

func TestGetCharacter(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.CharactersDir, "camarilla", "Prince.md"), "Rules the city.")

	text := callToolText(t, ctx, session, "get_character", map[string]any{
		"name": "Prince", "organization": "camarilla",
	})
	want := "# Prince\n\nRules the city."
	if text != want {
		t.Errorf("get_character = %q, want %q", text, want)
	}
}

func TestGetCharacter_UnaffiliatedAlias(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.CharactersDir, "Drifter.md"), "No faction.")

	text := callToolText(t, ctx, session, "get_character", map[string]any{
		"name": "Drifter", "organization": "Unaffiliated",
	})
	if !strings.Contains(text, "No faction.") {
		t.Errorf("expected root character body, got %q", text)
	}
}

func TestGetCharacter_MissSuggestsSameOrganization(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.CharactersDir, "camarilla", "Prince.md"), "p")
	writeFile(t, filepath.Join(cfg.CharactersDir, "camarilla", "Sheriff.md"), "s")

	text := callToolText(t, ctx, session, "get_character", map[string]any{
		"name": "Nobody", "organization": "camarilla",
	})
	if !strings.Contains(text, `character "Nobody" not found`) {
		t.Errorf("miss text should identify the name, got %q", text)
	}
	if !strings.Contains(text, "Characters in camarilla: Prince, Sheriff") {
		t.Errorf("miss text should list same-organization names, got %q", text)
	}
}

func TestGetCharacter_UnknownOrganizationListsKnown(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()
	writeFile(t, filepath.Join(cfg.CharactersDir, "camarilla", "Prince.md"), "p")
	writeFile(t, filepath.Join(cfg.CharactersDir, "anarchs", "R.md"), "r")

	text := callToolText(t, ctx, session, "get_character", map[string]any{
		"name": "Nobody", "organization": "sabbat",
	})
	if !strings.Contains(text, "Known organizations: anarchs, camarilla") {
		t.Errorf("miss text should list known organizations, got %q", text)
	}
}

func TestGetCharacter_ArgumentsRequired(t *testing.T) {
	session, _ := newSession(t, nil)
	ctx := context.Background()

	text := callToolText(t, ctx, session, "get_character", map[string]any{
		"name": "", "organization": "camarilla",
	})
	if !strings.Contains(text, "'name' parameter is required") {
		t.Errorf("expected name-required error, got %q", text)
	}

	text = callToolText(t, ctx, session, "get_character", map[string]any{
		"name": "Prince", "organization": "",
	})
	if !strings.Contains(text, "'organization' parameter is required") {
		t.Errorf("expected organization-required error, got %q", text)
	}
}

func TestGetStorySoFar(t *testing.T) {
	session, cfg := newSession(t, nil)
	ctx := context.Background()

	text := callToolText(t, ctx, session, "get_story_so_far", nil)
	if !strings.Contains(text, "No story summary found") {
		t.Errorf("expected not-found message, got %q", text)
	}

	writeFile(t, filepath.Join(cfg.SessionsDir, "__result.md"), "The coterie met at dusk.")
	text = callToolText(t, ctx, session, "get_story_so_far", nil)
	if text != "The coterie met at dusk." {
		t.Errorf("get_story_so_far = %q", text)
	}
}

func TestVictimsResonance_Negligible(t *testing.T) {
	session, _ := newSession(t, &seqSource{faces: []int{3}})
	ctx := context.Background()

	text := callToolText(t, ctx, session, "victims_resonance", map[string]any{"mood": "Choleric"})
	want := "Resonance: Negligible\nDyscrasia: None"
	if text != want {
		t.Errorf("victims_resonance = %q, want %q", text, want)
	}
}

func TestVictimsResonance_AcuteWithDyscrasia(t *testing.T) {
	session, _ := newSession(t, &seqSource{faces: []int{10, 10, 1}, unit: 0.1})
	ctx := context.Background()

	text := callToolText(t, ctx, session, "victims_resonance", map[string]any{"mood": "melancholic"})
	want := "Resonance: Acute\nDyscrasia: Maudlin Despair"
	if text != want {
		t.Errorf("victims_resonance = %q, want %q", text, want)
	}
}

func TestVictimsResonance_InvalidMood(t *testing.T) {
	session, _ := newSession(t, nil)
	ctx := context.Background()

	text := callToolText(t, ctx, session, "victims_resonance", map[string]any{"mood": "bilious"})
	if !strings.Contains(text, "unknown mood") {
		t.Errorf("expected unknown-mood error, got %q", text)
	}
	if !strings.Contains(text, "Choleric, Melancholic, Phlegmatic, Sanguine") {
		t.Errorf("error should list the valid moods, got %q", text)
	}

	text = callToolText(t, ctx, session, "victims_resonance", map[string]any{"mood": ""})
	if !strings.Contains(text, "'mood' parameter is required") {
		t.Errorf("expected mood-required error, got %q", text)
	}
}
