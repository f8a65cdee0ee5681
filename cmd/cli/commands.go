package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/mauv0809/smashclub/internal/auth"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(invitationsCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(ratingsCmd)

	tokenCmd.Flags().String("secret", os.Getenv("SUPABASE_JWT_SECRET"), "Secret used to sign the token")
	tokenCmd.Flags().String("nickname", "", "Nickname embedded in the token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsGetCmd, sessionsCreateCmd, sessionsJoinCmd,
		sessionsStartCmd, sessionsCompleteCmd, sessionsCancelCmd)
	sessionsListCmd.Flags().String("status", "", "Filter by status")
	sessionsListCmd.Flags().String("match-type", "", "Filter by match type")
	sessionsListCmd.Flags().Int("limit", 0, "Maximum number of sessions")
	sessionsCreateCmd.Flags().String("match-type", "MS", "Match type (MS, WS, MD, WD, XD)")
	sessionsCreateCmd.Flags().Int64("fee-points", 0, "Entry fee in points")
	sessionsCreateCmd.Flags().Int64("fee-feathers", 0, "Entry fee in feathers")
	sessionsCreateCmd.Flags().Int64("winner-points", 0, "Points awarded to each winner")
	sessionsCreateCmd.Flags().String("bet-currency", "NONE", "Bet currency (NONE, POINTS, FEATHERS)")
	sessionsCreateCmd.Flags().Int64("bet", 0, "Bet amount per player")
	sessionsCreateCmd.Flags().Int64("cost-points", 0, "Creation cost in points")
	sessionsCreateCmd.Flags().Int64("cost-feathers", 0, "Creation cost in feathers")
	sessionsCreateCmd.Flags().String("password", "", "Six digit session password")
	sessionsCreateCmd.Flags().Bool("ranked", false, "Whether the session affects ratings")
	sessionsJoinCmd.Flags().Int("team", 0, "Team to join (0 picks the smaller side)")
	sessionsJoinCmd.Flags().String("password", "", "Session password")
	sessionsJoinCmd.Flags().String("currency", "", "Entry fee currency (POINTS or FEATHERS)")
	sessionsCompleteCmd.Flags().String("result", "", "TEAM1_WIN, TEAM2_WIN, PLAYER1_WIN or PLAYER2_WIN")
	sessionsCompleteCmd.Flags().Int("team1-score", 0, "Team 1 score")
	sessionsCompleteCmd.Flags().Int("team2-score", 0, "Team 2 score")

	invitationsCmd.AddCommand(invitationsListCmd, invitationsSendCmd, invitationsRespondCmd)
	invitationsListCmd.Flags().String("type", "received", "received or sent")
	invitationsListCmd.Flags().String("status", "", "Filter by status")
	invitationsSendCmd.Flags().Int("team", 0, "Team the invitee is offered")
	invitationsSendCmd.Flags().String("message", "", "Message for the invitee")
	invitationsRespondCmd.Flags().String("currency", "", "Entry fee currency when accepting")

	walletCmd.AddCommand(walletTransactionsCmd)
	walletTransactionsCmd.Flags().Int("limit", 0, "Maximum number of entries")

	ratingsCmd.Flags().String("match-type", "MS", "Match type of the leaderboard")
	ratingsCmd.Flags().Int("limit", 0, "Maximum number of entries")
	ratingsCmd.AddCommand(ratingsUserCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Sign a development access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		nickname, _ := cmd.Flags().GetString("nickname")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if secret == "" {
			return fmt.Errorf("--secret or SUPABASE_JWT_SECRET is required")
		}
		signed, err := auth.SignToken(secret, auth.Identity{UserID: args[0], Nickname: nickname}, ttl)
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage match sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List match sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		setQuery(cmd, q, "status", "status")
		setQuery(cmd, q, "match-type", "matchType")
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}
		return performRequest(http.MethodGet, withQuery("/matches/sessions", q), nil)
	},
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show a match session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/matches/sessions/"+args[0], nil)
	},
}

var sessionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a match session",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		matchType, _ := f.GetString("match-type")
		feePoints, _ := f.GetInt64("fee-points")
		feeFeathers, _ := f.GetInt64("fee-feathers")
		winnerPoints, _ := f.GetInt64("winner-points")
		betCurrency, _ := f.GetString("bet-currency")
		bet, _ := f.GetInt64("bet")
		costPoints, _ := f.GetInt64("cost-points")
		costFeathers, _ := f.GetInt64("cost-feathers")
		password, _ := f.GetString("password")
		ranked, _ := f.GetBool("ranked")
		return performRequest(http.MethodPost, "/matches/sessions", map[string]any{
			"matchType":            matchType,
			"entryFeePoints":       feePoints,
			"entryFeeFeathers":     feeFeathers,
			"winnerPoints":         winnerPoints,
			"betCurrencyType":      betCurrency,
			"betAmountPerPlayer":   bet,
			"creationCostPoints":   costPoints,
			"creationCostFeathers": costFeathers,
			"password":             password,
			"isRanked":             ranked,
		})
	},
}

var sessionsJoinCmd = &cobra.Command{
	Use:   "join <session-id>",
	Short: "Join a pending match session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, _ := cmd.Flags().GetInt("team")
		password, _ := cmd.Flags().GetString("password")
		currency, _ := cmd.Flags().GetString("currency")
		return performRequest(http.MethodPost, "/matches/sessions/"+args[0]+"/join", map[string]any{
			"team":          team,
			"password":      password,
			"entryCurrency": currency,
		})
	},
}

var sessionsStartCmd = &cobra.Command{
	Use:   "start <session-id>",
	Short: "Start a full match session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/sessions/"+args[0]+"/start", nil)
	},
}

var sessionsCompleteCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Report the result of a running match session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, _ := cmd.Flags().GetString("result")
		team1, _ := cmd.Flags().GetInt("team1-score")
		team2, _ := cmd.Flags().GetInt("team2-score")
		return performRequest(http.MethodPost, "/matches/sessions/"+args[0]+"/complete", map[string]any{
			"result":     result,
			"team1Score": team1,
			"team2Score": team2,
		})
	},
}

var sessionsCancelCmd = &cobra.Command{
	Use:   "cancel <session-id>",
	Short: "Cancel a pending match session and refund its players",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/matches/sessions/"+args[0]+"/cancel", nil)
	},
}

var invitationsCmd = &cobra.Command{
	Use:   "invitations",
	Short: "Manage match invitations",
}

var invitationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List received or sent invitations",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		setQuery(cmd, q, "type", "type")
		setQuery(cmd, q, "status", "status")
		return performRequest(http.MethodGet, withQuery("/invitations", q), nil)
	},
}

var invitationsSendCmd = &cobra.Command{
	Use:   "send <session-id> <invitee-id>",
	Short: "Invite a user into a match session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, _ := cmd.Flags().GetInt("team")
		message, _ := cmd.Flags().GetString("message")
		return performRequest(http.MethodPost, "/invitations", map[string]any{
			"sessionId": args[0],
			"inviteeId": args[1],
			"team":      team,
			"message":   message,
		})
	},
}

var invitationsRespondCmd = &cobra.Command{
	Use:       "respond <invitation-id> <accept|decline|cancel>",
	Short:     "Accept, decline or cancel an invitation",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"accept", "decline", "cancel"},
	RunE: func(cmd *cobra.Command, args []string) error {
		currency, _ := cmd.Flags().GetString("currency")
		return performRequest(http.MethodPatch, "/invitations/"+args[0], map[string]any{
			"action":        args[1],
			"entryCurrency": currency,
		})
	},
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show your points and feathers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/wallet", nil)
	},
}

var walletTransactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Show your ledger history",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}
		return performRequest(http.MethodGet, withQuery("/wallet/transactions", q), nil)
	},
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Show the leaderboard of a match type",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		setQuery(cmd, q, "match-type", "matchType")
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}
		return performRequest(http.MethodGet, withQuery("/ratings", q), nil)
	},
}

var ratingsUserCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Show a user's ratings across match types",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/users/"+args[0]+"/ratings", nil)
	},
}

func setQuery(cmd *cobra.Command, q url.Values, flag, param string) {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		q.Set(param, v)
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func performRequest(method, endpoint string, payload any) error {
	target := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, target)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
