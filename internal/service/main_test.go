package service

import (
	"os"
	"testing"

	"github.com/emrgen/contentstore/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()

	code := m.Run()

	tester.RemoveTestDir()
	os.Exit(code)
}
