package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitImports(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantSpecs []string
		wantBody  string
	}{
		{
			name:     "no imports",
			src:      "x := 1\nx + 1",
			wantBody: "x := 1\nx + 1",
		},
		{
			name:      "single import",
			src:       "import \"os\"\nos.Getpid()",
			wantSpecs: []string{`"os"`},
			wantBody:  "\nos.Getpid()",
		},
		{
			name:      "aliased import with comment",
			src:       "import str \"strings\" // helpers\nstr.ToUpper(\"a\")",
			wantSpecs: []string{`str "strings"`},
			wantBody:  "\nstr.ToUpper(\"a\")",
		},
		{
			name:      "import block",
			src:       "import (\n\t\"os\"\n\tfp \"path/filepath\"\n)\nfp.Base(os.Args[0])",
			wantSpecs: []string{`"os"`, `fp "path/filepath"`},
			wantBody:  "\n\n\n\nfp.Base(os.Args[0])",
		},
		{
			name:      "one-line block",
			src:       "import ( \"os\"; \"bytes\" )\n1",
			wantSpecs: []string{`"os"`, `"bytes"`},
			wantBody:  "\n1",
		},
		{
			name:     "identifier starting with import",
			src:      "importer := \"x\"\nimporter",
			wantBody: "importer := \"x\"\nimporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, body := splitImports(tt.src)
			assert.Equal(t, tt.wantSpecs, specs)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestImportSpec_RejectsNonSpecs(t *testing.T) {
	assert.Equal(t, "", importSpec("x := 1"))
	assert.Equal(t, "", importSpec("fmt"))
	assert.Equal(t, "", importSpec(""))
	assert.Equal(t, `_ "embed"`, importSpec(`_ "embed";`))
}

func TestPreludeSpecs_ConsoleFirstAndDeduplicated(t *testing.T) {
	specs := preludeSpecs([]string{"fmt", ConsolePackage, "", "encoding/json"})
	assert.Equal(t, []string{`"console"`, `"fmt"`, `"encoding/json"`}, specs)
}
