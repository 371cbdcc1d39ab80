package utils

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRelayErrorIsMatchesDetailedCopy(t *testing.T) {
	base := SecurityError("sender unauthorized")
	detailed := base.WithDetails("room 42")

	require.ErrorIs(t, detailed, base)
	require.ErrorIs(t, fmt.Errorf("wrap: %w", detailed), base)
	require.Equal(t, "sender unauthorized: room 42", detailed.Error())
	require.False(t, errors.Is(detailed, ValidationError("sender unauthorized")))
}

func TestKindPredicates(t *testing.T) {
	require.True(t, IsValidationError(fmt.Errorf("x: %w", ValidationError("bad"))))
	require.False(t, IsValidationError(SecurityError("bad")))
	require.True(t, IsSecurityError(SecurityError("bad")))
	require.True(t, IsConfigError(ConfigError("bad")))
	require.False(t, IsSecurityError(errors.New("plain")))
}

func TestValidateName(t *testing.T) {
	require.NoError(t, ValidateName("nickname", "Zoë"))
	require.True(t, IsValidationError(ValidateName("nickname", "  ")))
	require.True(t, IsValidationError(ValidateName("nickname", "a\x00b")))
	require.True(t, IsValidationError(ValidateName("nickname", string([]byte{0xff}))))

	long := make([]rune, MaxNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	require.True(t, IsValidationError(ValidateName("nickname", string(long))))
}

func TestSameDayAndPrettyTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	require.True(t, SameDay(now, now.Add(-11*time.Hour)))
	require.False(t, SameDay(now, now.Add(-13*time.Hour)))

	require.Equal(t, "Today 12:00", FormatPrettyTime(now, now))
	require.Equal(t, "Yesterday 08:30", FormatPrettyTime(time.Date(2024, 5, 9, 8, 30, 0, 0, time.UTC), now))
	require.Equal(t, "Jan 2 08:30", FormatPrettyTime(time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC), now))
	require.Equal(t, "2023 Jan 02 08:30", FormatPrettyTime(time.Date(2023, 1, 2, 8, 30, 0, 0, time.UTC), now))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "hello", Truncate("hello", 5))
	require.Equal(t, "hel…", Truncate("hello", 4))
}

func TestRemoteLoggerBroadcasts(t *testing.T) {
	rl, err := NewRemoteLogger(0)
	require.NoError(t, err)
	defer rl.Close()

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", rl.Port))
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return rl.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	rl.Logf("[ROOM] %s", "hello")
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "[ROOM] hello\n", line)
}
