package kwin

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Reconfigure asks KWin to reload its configuration, which is how new
// and changed window rules take effect. It is the D-Bus equivalent of
// `qdbus org.kde.KWin /KWin reconfigure`.
func Reconfigure(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	call := conn.Object("org.kde.KWin", "/KWin").
		CallWithContext(ctx, "org.kde.KWin.reconfigure", 0)
	if call.Err != nil {
		return fmt.Errorf("kwin reconfigure: %w", call.Err)
	}
	return nil
}
