package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"uigen/internal/domain"
)

func TestBuiltin_PreservesOrder(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	var names []string
	for _, d := range c.Components() {
		names = append(names, d.Name)
		require.NotEmpty(t, d.ImportContract, d.Name)
		require.NotEmpty(t, d.UsageExample, d.Name)
	}
	require.Equal(t, []string{
		"Avatar", "Badge", "Button", "Card", "Form", "Input",
		"Label", "RadioGroup", "Select", "Textarea", "Carousel",
	}, names)
	require.Equal(t, 11, c.Len())
}

func TestBuiltin_BadgeDescriptor(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)
	badge := c.Components()[1]
	require.Equal(t, `import { Badge } from "@/components/ui/badge"`, badge.ImportContract)
	require.Contains(t, badge.UsageExample, `<Badge variant="outline">Outline</Badge>`)
}

func TestComponents_ReturnsCopy(t *testing.T) {
	c, err := New(domain.ComponentDescriptor{Name: "Button", ImportContract: "import Button", UsageExample: "<Button/>"})
	require.NoError(t, err)

	got := c.Components()
	got[0].Name = "Mutated"
	require.Equal(t, "Button", c.Components()[0].Name)
}

func TestNew_Validation(t *testing.T) {
	_, err := New()
	require.ErrorContains(t, err, "at least one")

	_, err = New(domain.ComponentDescriptor{Name: " ", ImportContract: "x"})
	require.ErrorContains(t, err, "no name")

	_, err = New(
		domain.ComponentDescriptor{Name: "A", ImportContract: "x"},
		domain.ComponentDescriptor{Name: "A", ImportContract: "y"},
	)
	require.ErrorContains(t, err, "duplicate")

	_, err = New(domain.ComponentDescriptor{Name: "A"})
	require.ErrorContains(t, err, "import contract")
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("components:\n  - name: A\n    import: x\n    colour: red\n"))
	require.ErrorContains(t, err, "decode")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`components:
  - name: Switch
    import: import { Switch } from "@/components/ui/switch"
    usage: <Switch />
  - name: Slider
    import: import { Slider } from "@/components/ui/slider"
    usage: <Slider defaultValue={[50]} />
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	require.Equal(t, "Switch", c.Components()[0].Name)
	require.Equal(t, "<Slider defaultValue={[50]} />", c.Components()[1].UsageExample)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read")
}
