// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/powermodes/powermodes/internal/executor"
)

// registerBuiltInActions installs the default action handlers.
func registerBuiltInActions(m *Manager) {
	m.RegisterAction(ActionLogWarning, handleLogWarning)
	m.RegisterAction(ActionRunCommand, handleRunCommand)
	m.RegisterAction(ActionNotifyWebhook, handleNotifyWebhook)
}

func handleLogWarning(hook *Hook, ctx *EventContext) error {
	msg, _ := hook.Params["message"].(string)
	if msg == "" {
		msg = "hook triggered"
	}
	log.Warnf("[hook %s] %s (event: %s)", hook.Name, msg, ctx.Event)
	return nil
}

// handleRunCommand runs an external command through the same executor the
// command plugin uses: shell string or argv list, stdin always detached.
func handleRunCommand(hook *Hook, ctx *EventContext) error {
	cmd := executor.Command{ShowStderr: true}

	switch raw := hook.Params["command"].(type) {
	case string:
		if raw == "" {
			return fmt.Errorf("missing command")
		}
		cmd.Shell = raw
	case []any:
		for _, elem := range raw {
			s, ok := elem.(string)
			if !ok {
				return fmt.Errorf("command list elements must be strings")
			}
			cmd.Argv = append(cmd.Argv, s)
		}
		if len(cmd.Argv) == 0 {
			return fmt.Errorf("missing command")
		}
	default:
		return fmt.Errorf("missing command")
	}

	runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := executor.Run(runCtx, cmd)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("command exited with status %d", result.ExitCode)
	}
	return nil
}

func handleNotifyWebhook(hook *Hook, ctx *EventContext) error {
	url, _ := hook.Params["url"].(string)
	if url == "" {
		return fmt.Errorf("missing webhook url")
	}
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://localhost") &&
		!strings.HasPrefix(url, "http://127.0.0.1") {
		return fmt.Errorf("insecure webhook url (must be https or localhost): %s", url)
	}

	payload := map[string]any{
		"event":     ctx.Event,
		"timestamp": ctx.Timestamp,
		"hook_id":   hook.ID,
		"mode":      ctx.Mode,
		"run_id":    ctx.RunID,
		"data":      ctx.Data,
	}
	if ctx.Plugin != "" {
		payload["plugin"] = ctx.Plugin
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "powermodes-hooks/1.0")

	if secret, _ := hook.Params["secret"].(string); secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		req.Header.Set("X-Hook-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
