package migrate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
)

type gooseLogger struct {
	logg *logger.Logger
}

// SetLogger routes goose progress output through the structured logger.
func SetLogger(logg *logger.Logger) {
	if logg == nil {
		goose.SetLogger(goose.NopLogger())
		return
	}
	goose.SetLogger(gooseLogger{logg: logg})
}

func (g gooseLogger) Printf(format string, v ...any) {
	ctx := g.logg.WithField(context.Background(), "component", "goose")
	g.logg.Info(ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	ctx := g.logg.WithField(context.Background(), "component", "goose")
	g.logg.Error(ctx, strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
	os.Exit(1)
}
