package cmn

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	stdout, stderr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	t.Cleanup(func() { Stdout, Stderr = stdout, stderr })
	return &out, &errOut
}

func TestAnsiFlag(t *testing.T) {
	assert.Equal(t, "\033[0m", AttrOff.String())
	assert.Equal(t, "\033[31m", ForeRed.String())
	assert.Equal(t, "\033[1;33m", (ForeYellow | AttrBold).String())
	assert.Equal(t, "\033[4;37;44m", (AttrUnderscore | ForeWhite | BackBlue).String())
}

func TestCndPrintfln(t *testing.T) {
	out, errOut := capture(t)

	CndPrintfln(true, PrintflnWarn, "    ", "%d statements", 3)
	assert.Equal(t, "3 statements\n", out.String())
	assert.Empty(t, errOut.String())

	out.Reset()
	CndPrintfln(false, PrintflnWarn, "    ", "%d statements", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "    "+ForeYellow.String()+MediumX+" 3 statements"+AttrOff.String()+"\n", errOut.String())

	errOut.Reset()
	CndPrintln(false, PrintflnNotify, "", "users")
	assert.Equal(t, ForeBlue.String()+MediumBulletPoint+AttrOff.String()+" users\n", out.String())
}

func TestCndPrintError(t *testing.T) {
	_, errOut := capture(t)
	err := errors.New("boom")

	CndPrintError(true, err)
	assert.Equal(t, "boom\n", errOut.String())

	errOut.Reset()
	CndPrintError(false, err)
	assert.Equal(t, ForeRed.String()+"boom\n"+AttrOff.String(), errOut.String())
}

func TestPrintflnSuccess(t *testing.T) {
	_, errOut := capture(t)
	PrintflnSuccess("  ", "done in %s", "1s")
	assert.Equal(t, "  "+ForeGreen.String()+MediumMark+" done in 1s"+AttrOff.String()+"\n", errOut.String())
}

func TestPrintln(t *testing.T) {
	out, _ := capture(t)
	Println("select 1;")
	assert.Equal(t, "select 1;\n", out.String())
}
