package man

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManPage(t *testing.T) {
	root := &cobra.Command{Use: "learnstream", Short: "Follow learning events"}
	root.AddCommand(&cobra.Command{Use: "watch", Short: "Follow the stream", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(NewCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"man"})
	require.NoError(t, root.Execute())

	page := out.String()
	assert.Contains(t, page, `.TH "LEARNSTREAM" "1"`)
	assert.Contains(t, page, "learnstream Manual")
	assert.Contains(t, page, "watch")
}
