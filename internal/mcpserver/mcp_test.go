package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/types"
)

type mockProfiles struct {
	profile *types.Profile
	err     error
}

func (m *mockProfiles) GetByUser(_ context.Context, _ uuid.UUID) (*types.Profile, error) {
	return m.profile, m.err
}

type mockRecommendations struct {
	recs      []types.Recommendation
	err       error
	generated uuid.UUID
	status    string
}

func (m *mockRecommendations) ListForUser(_ context.Context, _ uuid.UUID, status string) ([]types.Recommendation, error) {
	m.status = status
	return m.recs, m.err
}

func (m *mockRecommendations) GenerateForUser(_ context.Context, userID uuid.UUID) ([]types.Recommendation, error) {
	m.generated = userID
	return m.recs, m.err
}

func testDeps() Deps {
	return Deps{
		Scorer:     scoring.NewProfileScorer(scoring.DefaultScorerConfig()),
		Confidence: scoring.NewConfidenceCalculator(),
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "no content in result")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), makeCallToolRequest(name, args))
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestNewMCPServer(t *testing.T) {
	s := NewMCPServer(Deps{})
	assert.NotNil(t, s)
}

func TestMCPTool_ScoreProfile(t *testing.T) {
	deps := testDeps()
	result := callTool(t, mcpScoreProfile(deps), "score_profile", map[string]interface{}{
		"profile_data": `{"personal_info": {"name": "Ada", "email": "ada@example.com"}, "essays": "A long essay about engines"}`,
	})
	require.False(t, result.IsError, toolText(t, result))

	var score ProfileScore
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &score))
	assert.Greater(t, score.Quality, 0.0)
	assert.LessOrEqual(t, score.Quality, 1.0)
	assert.Contains(t, score.Categories, "personal_info")
	assert.Contains(t, score.Categories, "essays")
}

func TestMCPTool_ScoreProfile_Empty(t *testing.T) {
	result := callTool(t, mcpScoreProfile(testDeps()), "score_profile", map[string]interface{}{
		"profile_data": `{}`,
	})
	require.False(t, result.IsError)

	var score ProfileScore
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &score))
	assert.Equal(t, 0.0, score.Quality)
	assert.Empty(t, score.Categories)
}

func TestMCPTool_ScoreProfile_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{name: "missing", args: map[string]interface{}{}},
		{name: "bad json", args: map[string]interface{}{"profile_data": "{not json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, mcpScoreProfile(testDeps()), "score_profile", tt.args)
			assert.True(t, result.IsError)
		})
	}
}

func TestMCPTool_ScoreConfidence(t *testing.T) {
	result := callTool(t, mcpScoreConfidence(testDeps()), "score_confidence", map[string]interface{}{
		"document_type": "transcript",
		"info":          `{"gpa": 3.8, "courses": [{"name": "Calculus", "grade": "A"}], "source_type": "llm"}`,
	})
	require.False(t, result.IsError, toolText(t, result))

	var b scoring.Breakdown
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &b))
	assert.Greater(t, b.Score, scoring.FailureConfidence)
	assert.LessOrEqual(t, b.Score, 1.0)
}

func TestMCPTool_ScoreConfidence_ExtractionError(t *testing.T) {
	result := callTool(t, mcpScoreConfidence(testDeps()), "score_confidence", map[string]interface{}{
		"document_type": "essay",
		"info":          `{"error": "model timed out"}`,
	})
	require.False(t, result.IsError)

	var b scoring.Breakdown
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &b))
	assert.Equal(t, scoring.FailureConfidence, b.Score)
}

func TestMCPTool_ScoreConfidence_MissingInfo(t *testing.T) {
	result := callTool(t, mcpScoreConfidence(testDeps()), "score_confidence", map[string]interface{}{
		"document_type": "essay",
	})
	assert.True(t, result.IsError)
	assert.Equal(t, "info is required", toolText(t, result))
}

func TestMCPTool_NextSection(t *testing.T) {
	p := types.Profile{
		ID: uuid.New(),
		Config: types.ProfileConfig{
			Sections:            []string{"basics", "academic", "goals"},
			SectionDependencies: map[string][]string{"goals": {"academic"}},
		},
		Sections: map[string]*types.SectionData{
			"basics": {SectionID: "basics", Completed: true, Data: map[string]any{"name": "Ada"}},
		},
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	result := callTool(t, mcpNextSection(), "next_section", map[string]interface{}{"profile": string(raw)})
	require.False(t, result.IsError, toolText(t, result))

	var state types.ProfileState
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &state))
	require.NotNil(t, state.NextSection)
	assert.Equal(t, "academic", *state.NextSection)
	assert.Equal(t, []string{"basics"}, state.SectionsCompleted)
	assert.Equal(t, []string{"academic", "goals"}, state.SectionsRemaining)
	assert.InDelta(t, 1.0/3.0, state.CompletionRatio, 1e-9)
}

func TestMCPTool_NextSection_CyclicConfig(t *testing.T) {
	p := types.Profile{
		Config: types.ProfileConfig{
			Sections:            []string{"a", "b"},
			SectionDependencies: map[string][]string{"a": {"b"}, "b": {"a"}},
		},
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	result := callTool(t, mcpNextSection(), "next_section", map[string]interface{}{"profile": string(raw)})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "dependency cycle")
}

func TestMCPTool_Dedupe(t *testing.T) {
	candidates := []types.Recommendation{
		{Title: "Add GPA", Category: types.CategoryEducation},
		{Title: "Learn Kubernetes", Category: types.CategorySkill},
		{Title: "Learn Kubernetes basics", Category: types.CategorySkill},
	}
	existing := []types.Recommendation{
		{Title: "Add your GPA to the profile", Category: types.CategoryEducation},
	}
	rawCandidates, err := json.Marshal(candidates)
	require.NoError(t, err)
	rawExisting, err := json.Marshal(existing)
	require.NoError(t, err)

	result := callTool(t, mcpDedupe(), "dedupe_recommendations", map[string]interface{}{
		"candidates": string(rawCandidates),
		"existing":   string(rawExisting),
	})
	require.False(t, result.IsError, toolText(t, result))

	var kept []types.Recommendation
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &kept))
	require.Len(t, kept, 1)
	assert.Equal(t, "Learn Kubernetes", kept[0].Title)
}

func TestMCPTool_Dedupe_UnknownPolicy(t *testing.T) {
	result := callTool(t, mcpDedupe(), "dedupe_recommendations", map[string]interface{}{
		"candidates": `[]`,
		"policy":     "semantic",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "unknown similarity policy")
}

func TestMCPTool_Dedupe_EmptyResultIsArray(t *testing.T) {
	result := callTool(t, mcpDedupe(), "dedupe_recommendations", map[string]interface{}{
		"candidates": `[]`,
		"policy":     "token_overlap",
		"threshold":  0.5,
	})
	require.False(t, result.IsError)
	assert.Equal(t, "[]", toolText(t, result))
}

func TestMCPTool_ListRecommendations(t *testing.T) {
	recs := &mockRecommendations{recs: []types.Recommendation{{ID: uuid.New(), Title: "Add GPA", Status: types.StatusActive}}}
	deps := testDeps()
	deps.Recommendations = recs

	result := callTool(t, mcpListRecommendations(deps), "list_recommendations", map[string]interface{}{
		"user_id": uuid.New().String(),
		"status":  types.StatusActive,
	})
	require.False(t, result.IsError, toolText(t, result))
	assert.Equal(t, types.StatusActive, recs.status)

	var got []types.Recommendation
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Add GPA", got[0].Title)
}

func TestMCPTool_GenerateRecommendations(t *testing.T) {
	recs := &mockRecommendations{}
	deps := testDeps()
	deps.Recommendations = recs
	userID := uuid.New()

	result := callTool(t, mcpGenerateRecommendations(deps), "generate_recommendations", map[string]interface{}{
		"user_id": userID.String(),
	})
	require.False(t, result.IsError, toolText(t, result))
	assert.Equal(t, userID, recs.generated)
	assert.Equal(t, "[]", toolText(t, result))
}

func TestMCPTool_GenerateRecommendations_Failure(t *testing.T) {
	deps := testDeps()
	deps.Recommendations = &mockRecommendations{err: errors.New("database unavailable")}

	result := callTool(t, mcpGenerateRecommendations(deps), "generate_recommendations", map[string]interface{}{
		"user_id": uuid.New().String(),
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "database unavailable")
}

func TestMCPTool_StoredDataUnavailable(t *testing.T) {
	deps := testDeps()
	args := map[string]interface{}{"user_id": uuid.New().String()}

	assert.True(t, callTool(t, mcpListRecommendations(deps), "list_recommendations", args).IsError)
	assert.True(t, callTool(t, mcpGenerateRecommendations(deps), "generate_recommendations", args).IsError)
	assert.True(t, callTool(t, mcpProfileState(deps), "profile_state", args).IsError)
}

func TestMCPTool_ProfileState(t *testing.T) {
	deps := testDeps()
	deps.Profiles = &mockProfiles{profile: &types.Profile{
		ID:     uuid.New(),
		Status: types.ProfileStatusInProgress,
		Config: types.ProfileConfig{Sections: []string{"basics"}},
		Sections: map[string]*types.SectionData{
			"basics": {SectionID: "basics", Completed: true},
		},
	}}

	result := callTool(t, mcpProfileState(deps), "profile_state", map[string]interface{}{
		"user_id": uuid.New().String(),
	})
	require.False(t, result.IsError, toolText(t, result))

	var state types.ProfileState
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), &state))
	assert.Nil(t, state.NextSection)
	assert.Equal(t, 1.0, state.CompletionRatio)
}

func TestMCPTool_InvalidUserID(t *testing.T) {
	deps := testDeps()
	deps.Profiles = &mockProfiles{}

	result := callTool(t, mcpProfileState(deps), "profile_state", map[string]interface{}{
		"user_id": "not-a-uuid",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, toolText(t, result), "invalid user_id")
}
