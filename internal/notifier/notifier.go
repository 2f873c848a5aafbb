package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/logger"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// TrayExecutable is the process name prefix the lockfile PID must resolve to.
const TrayExecutable = constants.AppName + "-tray"

// SecretHeader carries the lockfile secret on every webhook request.
const SecretHeader = "X-Habitkit-Secret"

// Deliverer hands an intent to a reminder backend.
type Deliverer interface {
	Deliver(intent Intent) error
}

// Notifier delivers intents to the tray app's local webhook.
type Notifier struct {
	// TrayDir overrides the directory holding the tray lockfile.
	TrayDir string
	client  *http.Client
}

// WebhookPayload is the JSON body posted to the tray app.
type WebhookPayload struct {
	Action     Action `json:"action"`
	HabitID    int64  `json:"habit_id"`
	Name       string `json:"name,omitempty"`
	Time       string `json:"time,omitempty"`
	DurationMs uint32 `json:"duration_ms"`
}

func New(trayDir string) *Notifier {
	return &Notifier{
		TrayDir: trayDir,
		client:  &http.Client{Timeout: constants.NotifyRequestTimeout},
	}
}

// Deliver posts intent to the running tray app.
func (n *Notifier) Deliver(intent Intent) error {
	dir := n.TrayDir
	if dir == "" {
		var err error
		dir, err = GetTrayAppConfigDir()
		if err != nil {
			return err
		}
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	return n.send(port, secret, payloadFor(intent))
}

func payloadFor(intent Intent) WebhookPayload {
	p := WebhookPayload{
		Action:     intent.Action,
		HabitID:    intent.HabitID,
		DurationMs: constants.NotificationDurationMs,
	}
	if intent.Action == ActionSchedule {
		p.Name = intent.Habit.Name
		p.Time = intent.Habit.NotificationTime
	}
	return p
}

// Drain delivers queued intents until ctx is done. Failed deliveries are
// logged and dropped.
func Drain(ctx context.Context, queue *Queue, d Deliverer) error {
	for {
		intent, err := queue.Next(ctx)
		if err != nil {
			return err
		}
		if err := d.Deliver(intent); err != nil {
			logger.Warn("Reminder delivery failed", "action", intent.Action, "habit_id", intent.HabitID, "error", err)
			continue
		}
		logger.Debug("Reminder delivered", "action", intent.Action, "habit_id", intent.HabitID)
	}
}

// Flush delivers whatever is queued right now and returns the number of
// failures. CLI commands use it before exiting.
func Flush(queue *Queue, d Deliverer) int {
	failed := 0
	for {
		intent, ok := queue.TryNext()
		if !ok {
			return failed
		}
		if err := d.Deliver(intent); err != nil {
			logger.Warn("Reminder delivery failed", "action", intent.Action, "habit_id", intent.HabitID, "error", err)
			failed++
		}
	}
}

// GetTrayAppConfigDir returns the configuration directory used by the tray application.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// The tray app may relocate its lockfile in settings.json.
	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err == nil {
		if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
			return *store.Settings.LockfileDir, nil
		}
	}
	return trayConfigDir, nil
}

// findAndValidateTrayProcess reads a "port|pid|secret" lockfile and checks that
// pid belongs to the tray app.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", fmt.Errorf("%s is not running", TrayExecutable)
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", fmt.Errorf("%s process not running", TrayExecutable)
	}
	if !strings.HasPrefix(process.Executable(), TrayExecutable) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, TrayExecutable, process.Executable())
	}

	return port, secret, nil
}

func (n *Notifier) send(port, secret string, payload WebhookPayload) error {
	url := fmt.Sprintf("http://127.0.0.1:%s", port)

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, secret)

	client := n.client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	msg, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}
