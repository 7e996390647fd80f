// Package mcpserver exposes profile scoring and recommendation tools over the
// Model Context Protocol so assistants can call them directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonathan/profiler/internal/extraction"
	"github.com/jonathan/profiler/internal/profile"
	"github.com/jonathan/profiler/internal/recommendation"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/jonathan/profiler/internal/types"
)

// Version is reported to MCP clients during initialization
const Version = "1.0.0"

// ProfileSource looks up stored profiles by owner.
type ProfileSource interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
}

// RecommendationSource lists and generates stored recommendations.
type RecommendationSource interface {
	ListForUser(ctx context.Context, userID uuid.UUID, status string) ([]types.Recommendation, error)
	GenerateForUser(ctx context.Context, userID uuid.UUID) ([]types.Recommendation, error)
}

// Deps holds dependencies for the MCP server. Profiles and Recommendations
// are optional; without them the stored-data tools return an error.
type Deps struct {
	Scorer          *scoring.ProfileScorer
	Confidence      *scoring.ConfidenceCalculator
	Profiles        ProfileSource
	Recommendations RecommendationSource
}

// NewMCPServer creates an MCP server with every profiler tool registered.
func NewMCPServer(deps Deps) *server.MCPServer {
	if deps.Scorer == nil {
		deps.Scorer = scoring.NewProfileScorer(scoring.DefaultScorerConfig())
	}
	if deps.Confidence == nil {
		deps.Confidence = scoring.NewConfidenceCalculator()
	}

	s := server.NewMCPServer(
		"profiler",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("profiler scores profile quality and extraction confidence and manages improvement recommendations."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("score_profile",
			mcp.WithDescription("Score profile data (a JSON object keyed by category) and return the overall quality and per-category scores."),
			mcp.WithString("profile_data", mcp.Description("JSON object of category -> data"), mcp.Required()),
		),
		mcpScoreProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("score_confidence",
			mcp.WithDescription("Score the confidence of information extracted from a document."),
			mcp.WithString("document_type", mcp.Description("transcript, essay or resume"), mcp.Required()),
			mcp.WithString("info", mcp.Description("JSON object of extracted information"), mcp.Required()),
		),
		mcpScoreConfidence(deps),
	)

	s.AddTool(
		mcp.NewTool("next_section",
			mcp.WithDescription("Compute the completion state and next fillable section of a profile."),
			mcp.WithString("profile", mcp.Description("Profile as JSON, including config and sections"), mcp.Required()),
		),
		mcpNextSection(),
	)

	s.AddTool(
		mcp.NewTool("dedupe_recommendations",
			mcp.WithDescription("Drop candidate recommendations that duplicate existing ones or each other."),
			mcp.WithString("candidates", mcp.Description("JSON array of candidate recommendations"), mcp.Required()),
			mcp.WithString("existing", mcp.Description("JSON array of existing recommendations")),
			mcp.WithString("policy", mcp.Description("containment (default) or token_overlap")),
			mcp.WithNumber("threshold", mcp.Description("Token overlap threshold (default 0.7)")),
		),
		mcpDedupe(),
	)

	s.AddTool(
		mcp.NewTool("list_recommendations",
			mcp.WithDescription("List a user's stored recommendations, optionally filtered by status."),
			mcp.WithString("user_id", mcp.Description("User UUID"), mcp.Required()),
			mcp.WithString("status", mcp.Description("active, completed or dismissed")),
		),
		mcpListRecommendations(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_recommendations",
			mcp.WithDescription("Generate and store new recommendations for a user."),
			mcp.WithString("user_id", mcp.Description("User UUID"), mcp.Required()),
		),
		mcpGenerateRecommendations(deps),
	)

	s.AddTool(
		mcp.NewTool("profile_state",
			mcp.WithDescription("Return the completion state of a user's stored profile."),
			mcp.WithString("user_id", mcp.Description("User UUID"), mcp.Required()),
		),
		mcpProfileState(deps),
	)

	return s
}

// ProfileScore is the score_profile result
type ProfileScore struct {
	Quality    float64            `json:"quality"`
	Categories map[string]float64 `json:"categories"`
}

func mcpScoreProfile(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("profile_data")
		if err != nil {
			return mcpError("profile_data is required"), nil
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return mcpError(fmt.Sprintf("invalid profile_data JSON: %v", err)), nil
		}

		return mcpJSON(ProfileScore{
			Quality:    deps.Scorer.QualityScore(data),
			Categories: deps.Scorer.CategoryScores(data),
		})
	}
}

func mcpScoreConfidence(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docType, err := req.RequireString("document_type")
		if err != nil {
			return mcpError("document_type is required"), nil
		}
		raw, err := req.RequireString("info")
		if err != nil {
			return mcpError("info is required"), nil
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return mcpError(fmt.Sprintf("invalid info JSON: %v", err)), nil
		}

		info := extraction.Decode(types.ParseDocumentType(docType), data)
		return mcpJSON(deps.Confidence.Breakdown(info))
	}
}

func mcpNextSection() server.ToolHandlerFunc {
	calc := profile.NewStateCalculator()
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("profile")
		if err != nil {
			return mcpError("profile is required"), nil
		}

		var p types.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return mcpError(fmt.Sprintf("invalid profile JSON: %v", err)), nil
		}
		if err := p.Config.Validate(); err != nil {
			return mcpError(err.Error()), nil
		}

		return mcpJSON(calc.CalculateState(&p))
	}
}

func mcpDedupe() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("candidates")
		if err != nil {
			return mcpError("candidates is required"), nil
		}

		var candidates, existing []types.Recommendation
		if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
			return mcpError(fmt.Sprintf("invalid candidates JSON: %v", err)), nil
		}
		if rawExisting := req.GetString("existing", ""); rawExisting != "" {
			if err := json.Unmarshal([]byte(rawExisting), &existing); err != nil {
				return mcpError(fmt.Sprintf("invalid existing JSON: %v", err)), nil
			}
		}

		policy, err := recommendation.NewPolicy(req.GetString("policy", ""), req.GetFloat("threshold", 0))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		kept := recommendation.FilterDuplicates(candidates, existing, policy)
		if kept == nil {
			kept = []types.Recommendation{}
		}
		return mcpJSON(kept)
	}
}

func mcpListRecommendations(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Recommendations == nil {
			return mcpError("recommendations not available: no database configured"), nil
		}
		userID, errResult := requireUserID(req)
		if errResult != nil {
			return errResult, nil
		}

		recs, err := deps.Recommendations.ListForUser(ctx, userID, req.GetString("status", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("list failed: %v", err)), nil
		}
		if recs == nil {
			recs = []types.Recommendation{}
		}
		return mcpJSON(recs)
	}
}

func mcpGenerateRecommendations(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Recommendations == nil {
			return mcpError("recommendations not available: no database configured"), nil
		}
		userID, errResult := requireUserID(req)
		if errResult != nil {
			return errResult, nil
		}

		recs, err := deps.Recommendations.GenerateForUser(ctx, userID)
		if err != nil {
			return mcpError(fmt.Sprintf("generation failed: %v", err)), nil
		}
		if recs == nil {
			recs = []types.Recommendation{}
		}
		return mcpJSON(recs)
	}
}

func mcpProfileState(deps Deps) server.ToolHandlerFunc {
	calc := profile.NewStateCalculator()
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Profiles == nil {
			return mcpError("profiles not available: no database configured"), nil
		}
		userID, errResult := requireUserID(req)
		if errResult != nil {
			return errResult, nil
		}

		p, err := deps.Profiles.GetByUser(ctx, userID)
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		return mcpJSON(calc.CalculateState(p))
	}
}

func requireUserID(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString("user_id")
	if err != nil {
		return uuid.Nil, mcpError("user_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcpError(fmt.Sprintf("invalid user_id: %v", err))
	}
	return id, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
		IsError: true,
	}
}
