package lookin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grandcat/zeroconf"
)

const mdnsService = "_lookin._tcp"

// DiscoveredHub is one hub found on the local network
type DiscoveredHub struct {
	Name    string
	Address string
	Port    int
}

// Discover browses the local network for LOOKin hubs via mDNS for the given
// timeout and returns everything it finds.
func Discover(ctx context.Context, timeout time.Duration, logger *slog.Logger) ([]DiscoveredHub, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := resolver.Browse(browseCtx, mdnsService, "local.", entries); err != nil {
		return nil, fmt.Errorf("failed to browse for hubs: %w", err)
	}

	var hubs []DiscoveredHub
	for entry := range entries {
		if len(entry.AddrIPv4) == 0 {
			continue
		}
		hub := DiscoveredHub{
			Name:    entry.Instance,
			Address: entry.AddrIPv4[0].String(),
			Port:    entry.Port,
		}
		logger.Info("Discovered LOOKin hub", "name", hub.Name, "address", hub.Address)
		hubs = append(hubs, hub)
	}

	logger.Info("Hub discovery finished", "found", len(hubs))
	return hubs, nil
}
