package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_Toggle_KeyAssignment(t *testing.T) {
	require.Equal(t, []string{" "}, Queue.Toggle.Keys())
}

func TestQueue_SeekBindings_DoNotCollideWithNavigation(t *testing.T) {
	require.Equal(t, []string{"h", "left"}, Queue.SeekLeft.Keys())
	require.Equal(t, []string{"l", "right"}, Queue.SeekRight.Keys())
}

func TestQueue_Remove_HelpTextDefined(t *testing.T) {
	help := Queue.Remove.Help()
	require.NotEmpty(t, help.Key)
	require.NotEmpty(t, help.Desc)
}

func TestProfile_Open_KeyAssignment(t *testing.T) {
	require.Equal(t, []string{"p"}, Profile.Open.Keys())
}

func TestShortHelp(t *testing.T) {
	help := ShortHelp()
	require.Len(t, help, 2)
	require.Equal(t, Common.Help, help[0])
	require.Equal(t, Common.Quit, help[1])
}

func TestFullHelp(t *testing.T) {
	help := FullHelp()
	require.Len(t, help, 4)
	require.Contains(t, help[1], Queue.Toggle)
	require.Contains(t, help[3], Profile.Open)
}
