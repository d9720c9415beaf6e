package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/snapshot"
	"github.com/starford/folio/internal/store"
	"github.com/starford/folio/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	_, fs := testutil.TestSite(t)
	testutil.WriteSnapshot(t, fs, models.Snapshot{
		Projects: []models.Project{
			{ID: "proj_01", Number: "01", Title: "Secret", Order: 1, Status: models.StatusLocked,
				Images: []string{"img/projects/99das/img1.jpg"}, CoverImage: testutil.Ptr("cover.jpg")},
			{ID: "proj_02", Number: "02", Title: "Public", Order: 2, Images: []string{"img/projects/ridp/img1.jpg"}},
		},
		About: []models.AboutEntry{
			{Section: models.SectionExperience, Title: "Studio", StartDate: "2020"},
			{Section: models.SectionEducation, Title: "School", StartDate: "2015", EndDate: testutil.Ptr("2019")},
		},
		Vault:       []models.VaultItem{{Order: 1}, {Order: 2}},
		Settings:    models.Settings{models.SettingPassword: "hunter2", "THEME": "dark"},
		LastUpdated: "2024-05-01T12:00:00.000Z",
	})
	db := testutil.TestDB(t)
	loader := snapshot.NewLoader(snapshot.FileSource{Store: fs}, nil)
	return New(loader, db), db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_projects":
		result, err = srv.listProjects(ctx, req)
	case "get_project":
		result, err = srv.getProject(ctx, req)
	case "list_about":
		result, err = srv.listAbout(ctx, req)
	case "list_vault":
		result, err = srv.listVault(ctx, req)
	case "snapshot_info":
		result, err = srv.snapshotInfo(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListProjects(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_projects", map[string]interface{}{})
	var got []projectSummary
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "proj_01" || !got[0].Locked || got[1].Locked {
		t.Errorf("projects = %+v", got)
	}
}

func TestGetProject_LockedHidesMedia(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_project", map[string]interface{}{"id": "proj_01"})
	text := resultText(r)
	if strings.Contains(text, "99das") || strings.Contains(text, "cover.jpg") {
		t.Errorf("locked project leaked media: %s", text)
	}
	if !strings.Contains(text, `"title": "Secret"`) {
		t.Errorf("locked project metadata missing: %s", text)
	}

	r = callTool(t, srv, "get_project", map[string]interface{}{"id": "proj_02"})
	if !strings.Contains(resultText(r), "img/projects/ridp/img1.jpg") {
		t.Errorf("open project media missing: %s", resultText(r))
	}
}

func TestGetProject_Missing(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "get_project", map[string]interface{}{"id": "proj_99"}); !r.IsError {
		t.Error("expected error for unknown id")
	}
	if r := callTool(t, srv, "get_project", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing id")
	}
}

func TestListAbout(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_about", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"dateLabel": "2020 -"`) || !strings.Contains(text, `"dateLabel": "2015 - 2019"`) {
		t.Errorf("about = %s", text)
	}

	r = callTool(t, srv, "list_about", map[string]interface{}{"section": "EDUCATION"})
	if text := resultText(r); strings.Contains(text, "Studio") || !strings.Contains(text, "School") {
		t.Errorf("filtered about = %s", text)
	}
}

func TestListVault(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_vault", map[string]interface{}{})
	if text := resultText(r); !strings.HasPrefix(text, "vault holds 2 items") {
		t.Errorf("vault = %q", text)
	}
}

func TestSnapshotInfo_NeverExposesSettingValues(t *testing.T) {
	srv, db := testServer(t)
	start := time.Date(2024, 5, 1, 11, 59, 0, 0, time.UTC)
	if _, err := db.RecordRun(context.Background(), store.RunRow{
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Failures:   map[string]string{"vault": "boom"},
	}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "snapshot_info", map[string]interface{}{})
	text := resultText(r)
	if strings.Contains(text, "hunter2") || strings.Contains(text, "dark") {
		t.Fatalf("setting values leaked: %s", text)
	}
	var info snapshotInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatal(err)
	}
	if info.LastUpdated != "2024-05-01T12:00:00.000Z" || info.Counts["projects"] != 2 || info.Counts["vault"] != 2 {
		t.Errorf("info = %+v", info)
	}
	if len(info.SettingKeys) != 2 || info.SettingKeys[0] != "PASSWORD" {
		t.Errorf("setting keys = %v", info.SettingKeys)
	}
	if info.LastRun == nil || info.LastRun.DurationMS != 1500 || info.LastRun.Failures["vault"] != "boom" {
		t.Errorf("last run = %+v", info.LastRun)
	}
}

func TestFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	res, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(res) != 1 {
		t.Fatalf("resource = %v, %v", res, err)
	}
	if tc, ok := res[0].(mcp.TextResourceContents); !ok || tc.URI != formatURI {
		t.Errorf("resource contents = %+v", res[0])
	}
}
