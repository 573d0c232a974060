package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/armseq/internal/document"
)

type listResponse struct {
	Status string           `json:"status"`
	Data   []ProjectSummary `json:"data"`
}

type showResponse struct {
	Status string        `json:"status"`
	Data   ProjectDetail `json:"data"`
}

func listProjects(t *testing.T, db string) []ProjectSummary {
	t.Helper()
	out, err := execute(t, "--db", db, "--format", "json", "list")
	require.NoError(t, err)
	var resp listResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func showProject(t *testing.T, db, id string) ProjectDetail {
	t.Helper()
	out, err := execute(t, "--db", db, "--format", "json", "show", id)
	require.NoError(t, err)
	var resp showResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp.Data
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCreateAndList(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "--db", db, "create", "--name", "  Wave ", "--slot", "2")
	require.NoError(t, err)
	assert.Equal(t, "Created project 1: Wave\n", out)

	out, err = execute(t, "--db", db, "--format", "json", "create", "--name", "Bow")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"id":2}}`, out)

	projects := listProjects(t, db)
	require.Len(t, projects, 2)
	assert.Equal(t, "Bow", projects[0].Name)
	assert.Nil(t, projects[0].RemoteSlot)
	assert.Equal(t, "Wave", projects[1].Name)
	require.NotNil(t, projects[1].RemoteSlot)
	assert.Equal(t, 2, *projects[1].RemoteSlot)

	out, err = execute(t, "--db", db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Wave")
	assert.Contains(t, out, "Bow")
}

func TestCreateRejectsInvalidProject(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, "--db", db, "create", "--name", "   ")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "--db", db, "create", "--name", "Wave", "--slot", "11")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "--db", db, "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestListEmpty(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "--db", db, "list")
	require.NoError(t, err)
	assert.Equal(t, "No projects.\n", out)

	assert.Empty(t, listProjects(t, db))
}

func TestImportAndShow(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "--db", db, "--format", "json", "import", "testdata/wave.yaml", "testdata/wave.tox")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   []ImportedProject `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Wave", resp.Data[0].Name)
	assert.Equal(t, 3, resp.Data[0].Frames)
	assert.Equal(t, "wave", resp.Data[1].Name)
	assert.Equal(t, 3, resp.Data[1].Frames)
	assert.NotEqual(t, resp.Data[0].ID, resp.Data[1].ID)

	detail := showProject(t, db, "1")
	if resp.Data[0].ID != 1 {
		detail = showProject(t, db, "2")
	}
	assert.Equal(t, "Wave", detail.Name)
	require.NotNil(t, detail.RemoteSlot)
	assert.Equal(t, 3, *detail.RemoteSlot)
	require.Len(t, detail.Frames, 3)
	assert.Equal(t, 600, detail.Frames[1].Duration)
	assert.Equal(t, []int{2000, 1500, 1200, 1500, 1500, 1500}, detail.Frames[1].Servos)
	require.NotNil(t, detail.Frames[1].Sound)
	assert.Equal(t, 4, *detail.Frames[1].Sound)
	assert.NotZero(t, detail.CreatedAt)

	out, err = execute(t, "--db", db, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Frames: 3")
}

func TestImportIsAllOrNothing(t *testing.T) {
	db := tempDB(t)
	bad := writeFile(t, "bad.yaml", "name: Bad\nframes:\n  - {servos: [1500, 1500, 1500, 1500, 1500, 1500, 1500]}\n")

	_, err := execute(t, "--db", db, "import", "testdata/wave.yaml", bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	assert.Empty(t, listProjects(t, db))
}

func TestImportMissingFile(t *testing.T) {
	_, err := execute(t, "--db", tempDB(t), "import", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShowMissingProject(t *testing.T) {
	_, err := execute(t, "--db", tempDB(t), "show", "7")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "project 7 not found")

	_, err = execute(t, "--db", tempDB(t), "show", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportJSON(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "import", "testdata/wave.yaml")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "export", "1")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_wave", []byte(out))
}

func TestExportToFileRoundTrips(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "import", "testdata/wave.yaml")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wave.yml")
	out, err := execute(t, "--db", db, "export", "1", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	a, err := document.ReadFile(path)
	require.NoError(t, err)
	original, err := document.ReadFile("testdata/wave.yaml")
	require.NoError(t, err)
	assert.Equal(t, original.Name, a.Name)
	assert.Equal(t, original.RemoteSlot, a.RemoteSlot)
	assert.Equal(t, original.Frames, a.Frames)
}

func TestExportRejectsFormat(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "create", "--name", "Wave")
	require.NoError(t, err)

	_, err = execute(t, "--db", db, "export", "1", "--as", "tox")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "--db", db, "export", "1", "--out", filepath.Join(t.TempDir(), "wave.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUpdateReplacesFrames(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "import", "testdata/wave.yaml")
	require.NoError(t, err)
	before := showProject(t, db, "1")

	file := writeFile(t, "bow.yaml", "name: Bow\nframes:\n  - {duration: 700, servos: [1200]}\n")
	out, err := execute(t, "--db", db, "update", "1", file)
	require.NoError(t, err)
	assert.Equal(t, "Updated project 1: Bow (1 frames)\n", out)

	after := showProject(t, db, "1")
	assert.Equal(t, "Bow", after.Name)
	assert.Nil(t, after.RemoteSlot)
	require.Len(t, after.Frames, 1)
	assert.Equal(t, 700, after.Frames[0].Duration)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.GreaterOrEqual(t, after.ModifiedAt, before.ModifiedAt)
}

func TestUpdateMissingProject(t *testing.T) {
	db := tempDB(t)
	file := writeFile(t, "bow.yaml", "name: Bow\n")

	_, err := execute(t, "--db", db, "update", "4", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestDeleteProject(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "import", "testdata/wave.yaml")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted project 1\n", out)
	assert.Empty(t, listProjects(t, db))

	// Deleting again is not an error.
	_, err = execute(t, "--db", db, "delete", "1")
	require.NoError(t, err)
}

func TestFrameDelete(t *testing.T) {
	db := tempDB(t)
	_, err := execute(t, "--db", db, "import", "testdata/wave.yaml")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "frame", "delete", "1", "--seq", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted frame 1 of project 1\n", out)

	detail := showProject(t, db, "1")
	require.Len(t, detail.Frames, 2)
	require.NotNil(t, detail.Frames[0].Sequence)
	require.NotNil(t, detail.Frames[1].Sequence)
	assert.Equal(t, 0, *detail.Frames[0].Sequence)
	assert.Equal(t, 2, *detail.Frames[1].Sequence)

	_, err = execute(t, "--db", db, "frame", "delete", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
