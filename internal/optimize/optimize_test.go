package optimize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/config"
)

const sampleCSS = `
/* layout */
body {
  margin: 0px;
  color: #ff0000;
}

.header   .title {
  font-weight: bold;
}
`

func TestESBuild_MinifiesCSS(t *testing.T) {
	out, err := ESBuild{}.Optimize("css", sampleCSS)
	require.NoError(t, err)
	require.Less(t, len(out), len(sampleCSS))
	require.Contains(t, out, ".header .title")
	require.NotContains(t, out, "/* layout */")
}

func TestESBuild_Idempotent(t *testing.T) {
	inputs := map[string]string{
		"css": sampleCSS,
		"js":  "var answer = 40 + 2;\nconsole.log( answer );\n",
	}
	for kind, in := range inputs {
		once, err := ESBuild{}.Optimize(kind, in)
		require.NoError(t, err)
		twice, err := ESBuild{}.Optimize(kind, once)
		require.NoError(t, err)
		require.Equal(t, once, twice, "optimize(optimize(x)) must equal optimize(x) for %s", kind)
	}
}

func TestESBuild_ReportsSyntaxErrors(t *testing.T) {
	_, err := ESBuild{}.Optimize("js", "function (")
	require.Error(t, err)
}

func TestESBuild_PassesThroughUnknownKindsAndEmpty(t *testing.T) {
	out, err := ESBuild{}.Optimize("txt", "  keep   me ")
	require.NoError(t, err)
	require.Equal(t, "  keep   me ", out)

	out, err = ESBuild{}.Optimize("css", "   \n")
	require.NoError(t, err)
	require.Equal(t, "", out)
}

func TestIdentity(t *testing.T) {
	out, err := Identity{}.Optimize("css", sampleCSS)
	require.NoError(t, err)
	require.Equal(t, sampleCSS, out)
}

func TestForPipeline(t *testing.T) {
	cfg := config.Default()
	require.IsType(t, Identity{}, ForPipeline(config.NewPipelineConfig(config.Development, cfg)))
	require.IsType(t, ESBuild{}, ForPipeline(config.NewPipelineConfig(config.Release, cfg)))
}
