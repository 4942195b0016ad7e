package discordrpc

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/vincenzomaritato/presence-bridge/internal/engine"
)

type handshakeMessage struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

func buildHandshake(clientID string) []byte {
	body, _ := json.Marshal(handshakeMessage{V: 1, ClientID: clientID})
	return body
}

type setActivityRequest struct {
	Cmd   string          `json:"cmd"`
	Args  setActivityArgs `json:"args"`
	Nonce string          `json:"nonce"`
}

type setActivityArgs struct {
	PID      int           `json:"pid"`
	Activity *activityJSON `json:"activity"`
}

type activityJSON struct {
	Type       int             `json:"type"`
	Details    string          `json:"details,omitempty"`
	State      string          `json:"state,omitempty"`
	Timestamps *timestampsJSON `json:"timestamps,omitempty"`
	Assets     *assetsJSON     `json:"assets,omitempty"`
	Buttons    []buttonJSON    `json:"buttons,omitempty"`
}

type timestampsJSON struct {
	Start int64 `json:"start"`
}

type assetsJSON struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

type buttonJSON struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// buildSetActivity encodes an ActivityPayload as a SET_ACTIVITY command.
// timestamps.start is omitted entirely when the payload carries none
// (paused tracks never show an elapsed clock), and buttons are omitted
// when empty.
func buildSetActivity(payload engine.ActivityPayload) ([]byte, error) {
	activity := &activityJSON{
		Type:    payload.ActivityType,
		Details: payload.Details,
		State:   payload.StateText,
	}
	if payload.StartTimestampUnix != nil {
		activity.Timestamps = &timestampsJSON{Start: *payload.StartTimestampUnix}
	}
	if assets := buildAssets(payload); assets != nil {
		activity.Assets = assets
	}
	for _, b := range payload.Buttons {
		activity.Buttons = append(activity.Buttons, buttonJSON{Label: b.Label, URL: b.URL})
	}

	req := setActivityRequest{
		Cmd:   "SET_ACTIVITY",
		Args:  setActivityArgs{PID: os.Getpid(), Activity: activity},
		Nonce: uuid.NewString(),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal set_activity: %w", err)
	}
	return body, nil
}

// buildClearActivity encodes a SET_ACTIVITY command with a null activity,
// which clears the user's Rich Presence.
func buildClearActivity() ([]byte, error) {
	req := setActivityRequest{
		Cmd:   "SET_ACTIVITY",
		Args:  setActivityArgs{PID: os.Getpid(), Activity: nil},
		Nonce: uuid.NewString(),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal clear activity: %w", err)
	}
	return body, nil
}

func buildAssets(payload engine.ActivityPayload) *assetsJSON {
	if payload.LargeImage == "" && payload.LargeText == "" && payload.SmallImage == "" && payload.SmallText == "" {
		return nil
	}
	return &assetsJSON{
		LargeImage: payload.LargeImage,
		LargeText:  payload.LargeText,
		SmallImage: payload.SmallImage,
		SmallText:  payload.SmallText,
	}
}

type rpcResponse struct {
	Evt  string `json:"evt"`
	Data struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"data"`
}

// validateResponse inspects a Discord RPC response frame for an error
// event. A malformed frame is ignored (nil is returned, nothing is logged)
// rather than treated as a transport failure.
func validateResponse(raw []byte) error {
	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	if strings.EqualFold(resp.Evt, "ERROR") {
		return fmt.Errorf("discord rpc error %d: %s", resp.Data.Code, resp.Data.Message)
	}
	return nil
}

func validateHandshakeResponse(op int32, raw []byte) error {
	if op != OpFrame {
		return fmt.Errorf("unexpected discord ipc handshake opcode %d", op)
	}
	var resp struct {
		Evt string `json:"evt"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("malformed discord ipc handshake response: %w", err)
	}
	if !strings.EqualFold(resp.Evt, "READY") {
		return fmt.Errorf("discord ipc handshake not ready: evt=%s", resp.Evt)
	}
	return nil
}
