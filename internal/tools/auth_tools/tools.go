package auth_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/instrumentation"
	"github.com/taskdeck/taskdeck/internal/server"
	"github.com/taskdeck/taskdeck/internal/tools/common"
)

// RegisterAuthTools registers the authentication tools with the MCP
// server. Login, logout and whoami are always available; profile updates
// are only registered when readOnly is false.
func RegisterAuthTools(s *mcpserver.MCPServer, ac *server.AppContext, readOnly bool) error {
	loginTool := mcp.NewTool("auth_login",
		mcp.WithDescription("Log in with email and password. All task tools require an active session."),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Account email address"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Account password"),
		),
	)

	s.AddTool(loginTool, common.InstrumentedToolHandlerWithOperation("auth_login", instrumentation.OperationLogin, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			email, _ := args["email"].(string)
			password, _ := args["password"].(string)
			if email == "" || password == "" {
				return mcp.NewToolResultError("email and password are required"), nil
			}

			user, err := ac.Board().Login(ctx, api.Credentials{Email: email, Password: password})
			recordAuthAttempt(ctx, ac, instrumentation.OperationLogin, err)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Login failed: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Logged in as %s (%s)", user.Name, user.Email)), nil
		}))

	registerTool := mcp.NewTool("auth_register",
		mcp.WithDescription("Create a new account and log in with it"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name for the new account"),
		),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Email address for the new account"),
		),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Password for the new account"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone, e.g. 'Europe/Berlin'"),
		),
	)

	s.AddTool(registerTool, common.InstrumentedToolHandlerWithOperation("auth_register", instrumentation.OperationRegister, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			reg := api.Registration{}
			reg.Name, _ = args["name"].(string)
			reg.Email, _ = args["email"].(string)
			reg.Password, _ = args["password"].(string)
			if reg.Name == "" || reg.Email == "" || reg.Password == "" {
				return mcp.NewToolResultError("name, email and password are required"), nil
			}
			if timezone, ok := args["timezone"].(string); ok {
				reg.Timezone = timezone
			}

			user, err := ac.Board().Register(ctx, reg)
			recordAuthAttempt(ctx, ac, instrumentation.OperationRegister, err)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Registration failed: %v", err)), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Account created; logged in as %s (%s)", user.Name, user.Email)), nil
		}))

	whoamiTool := mcp.NewTool("auth_whoami",
		mcp.WithDescription("Show the currently logged-in user, if any"),
	)

	s.AddTool(whoamiTool, common.InstrumentedToolHandler("auth_whoami", ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			user, ok := ac.Sessions().User()
			if !ok {
				return mcp.NewToolResultText("Not logged in"), nil
			}

			result, _ := json.MarshalIndent(user, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	logoutTool := mcp.NewTool("auth_logout",
		mcp.WithDescription("End the current session and drop all cached tasks"),
	)

	s.AddTool(logoutTool, common.InstrumentedToolHandler("auth_logout", ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := ac.Board().Logout(ctx); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Logout failed: %v", err)), nil
			}
			return mcp.NewToolResultText("Logged out"), nil
		}))

	if !readOnly {
		updateProfileTool := mcp.NewTool("auth_update_profile",
			mcp.WithDescription("Update the logged-in user's profile. Only the provided fields change."),
			mcp.WithString("name",
				mcp.Description("New display name"),
			),
			mcp.WithString("timezone",
				mcp.Description("New IANA timezone"),
			),
			mcp.WithString("notificationPreferences",
				mcp.Description("New notification preferences"),
			),
			mcp.WithString("password",
				mcp.Description("New password"),
			),
		)

		s.AddTool(updateProfileTool, common.InstrumentedToolHandler("auth_update_profile", ac,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args, _ := request.Params.Arguments.(map[string]interface{})

				patch := api.ProfilePatch{}
				patch.Name, _ = args["name"].(string)
				patch.Timezone, _ = args["timezone"].(string)
				patch.NotificationPreferences, _ = args["notificationPreferences"].(string)
				patch.Password, _ = args["password"].(string)
				if patch.Name == "" && patch.Timezone == "" && patch.NotificationPreferences == "" && patch.Password == "" {
					return mcp.NewToolResultError("at least one field to update is required"), nil
				}

				user, err := ac.Board().UpdateProfile(ctx, patch)
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("Profile update failed: %v", err)), nil
				}

				result, _ := json.MarshalIndent(user, "", "  ")
				return mcp.NewToolResultText(fmt.Sprintf("Profile updated:\n%s", string(result))), nil
			}))
	}

	return nil
}

// recordAuthAttempt records an auth attempt metric. Safe with nil metrics.
func recordAuthAttempt(ctx context.Context, ac *server.AppContext, operation string, err error) {
	result := instrumentation.StatusSuccess
	if err != nil {
		result = instrumentation.StatusError
	}
	ac.Metrics().RecordAuthAttempt(ctx, operation, result)
}
