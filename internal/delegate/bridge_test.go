package delegate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBridge runs shell scripts from a temp dir instead of the real
// analysis service. The stdout/stderr/exit-code contract is identical.
func testBridge(t *testing.T) (*Bridge, string) {
	t.Helper()
	dir := t.TempDir()
	return New("/bin/sh", dir, slog.New(slog.DiscardHandler)), dir
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestInvoke_ParsesEnvelope(t *testing.T) {
	bridge, dir := testBridge(t)
	writeScript(t, dir, ScriptDaily, `echo '{"status":"success","date":"2024-03-14","data":{"totalFeedbacks":3}}'`)

	resp, err := bridge.Daily(context.Background(), civilday.Day{Year: 2024, Month: time.March, Date: 14})

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "2024-03-14", resp.Date)
	assert.JSONEq(t, `{"totalFeedbacks":3}`, string(resp.Data))
	assert.JSONEq(t, `{"status":"success","date":"2024-03-14","data":{"totalFeedbacks":3}}`, string(resp.Raw))
}

func TestInvoke_PassesArgsPositionally(t *testing.T) {
	bridge, dir := testBridge(t)
	writeScript(t, dir, ScriptHistorical, `echo "{\"status\":\"success\",\"message\":\"$1 $2 $3\"}"`)

	window, err := civilday.NewWindow(
		civilday.Day{Year: 2024, Month: time.March, Date: 1},
		civilday.Day{Year: 2024, Month: time.March, Date: 7},
	)
	require.NoError(t, err)

	resp, err := bridge.Historical(context.Background(), window, ModeTrend)

	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 2024-03-07 trend", resp.Message)
}

func TestInvoke_NonzeroExitCarriesStderr(t *testing.T) {
	bridge, dir := testBridge(t)
	writeScript(t, dir, ScriptDaily, `echo "database unreachable" >&2; exit 1`)

	_, err := bridge.Daily(context.Background(), civilday.Day{Year: 2024, Month: time.March, Date: 14})

	var delegateErr *Error
	require.ErrorAs(t, err, &delegateErr)
	assert.Equal(t, ScriptDaily, delegateErr.Script)
	assert.Equal(t, "database unreachable", delegateErr.Detail)
	assert.Contains(t, err.Error(), "database unreachable")
}

func TestInvoke_InvalidOutput(t *testing.T) {
	bridge, dir := testBridge(t)
	writeScript(t, dir, ScriptWeekly, `echo "Traceback (most recent call last):"`)

	_, err := bridge.Weekly(context.Background(), civilday.Day{Year: 2024, Month: time.March, Date: 14})

	var delegateErr *Error
	require.ErrorAs(t, err, &delegateErr)
	assert.Equal(t, "invalid output", delegateErr.Detail)
}

func TestInvoke_TimeoutKillsProcess(t *testing.T) {
	bridge, dir := testBridge(t)
	bridge.timeout = 100 * time.Millisecond
	writeScript(t, dir, ScriptDaily, `sleep 30`)

	start := time.Now()
	_, err := bridge.Daily(context.Background(), civilday.Day{Year: 2024, Month: time.March, Date: 14})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	// Run only returns once the process is gone, so a fast return proves
	// the kill happened instead of waiting out the sleep.
	assert.Less(t, elapsed, 10*time.Second)
}

func TestInvoke_CallerCancellation(t *testing.T) {
	bridge, dir := testBridge(t)
	writeScript(t, dir, ScriptDaily, `sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := bridge.Daily(ctx, civilday.Day{Year: 2024, Month: time.March, Date: 14})

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"comparison", "trend", "pattern"} {
		mode, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), mode)
	}

	_, err := ParseMode("regression")
	assert.Error(t, err)
}
