package notify

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"netloc/internal/config"

	"github.com/cloudflare/cloudflare-go"
	"go.uber.org/zap"
)

// Cloudflare points a DNS record at the new address. Records of the same
// type with other contents are removed, so the domain resolves to exactly
// the current address of that family.
type Cloudflare struct {
	config *config.CloudflareConfig
	logger *zap.Logger
	api    *cloudflare.API
}

// NewCloudflare creates new Cloudflare DNS reporter. Extra options are
// passed to the API client.
func NewCloudflare(cfg *config.CloudflareConfig, logger *zap.Logger, opts ...cloudflare.Option) (*Cloudflare, error) {
	if cfg.APIToken == "" || cfg.Domain == "" {
		return nil, fmt.Errorf("cloudflare api token and domain are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api, err := cloudflare.NewWithAPIToken(cfg.APIToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}

	return &Cloudflare{
		config: cfg,
		logger: logger,
		api:    api,
	}, nil
}

// Name returns the reporter name
func (n *Cloudflare) Name() string { return "cloudflare" }

// Report updates the DNS record
func (n *Cloudflare) Report(ctx context.Context, p *Payload) error {
	addr, err := netip.ParseAddr(p.IP)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", p.IP, err)
	}
	rtype := recordType(addr)
	domain := n.config.Domain

	zid, err := n.zoneID(ctx)
	if err != nil {
		return fmt.Errorf("unable to get zone ID for %s: %w", domain, err)
	}

	zone := cloudflare.ZoneIdentifier(zid)
	records, _, err := n.api.ListDNSRecords(ctx, zone, cloudflare.ListDNSRecordsParams{
		Type: rtype,
		Name: domain,
	})
	if err != nil {
		return fmt.Errorf("unable to list %s records for %s: %w", rtype, domain, err)
	}

	exists := false
	for _, r := range records {
		if current, err := netip.ParseAddr(r.Content); err == nil && current == addr {
			exists = true
			continue
		}

		if err := n.api.DeleteDNSRecord(ctx, zone, r.ID); err != nil {
			return fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
		}
		n.logger.Info("Deleted stale DNS record",
			zap.String("domain", domain),
			zap.String("type", rtype),
			zap.String("content", r.Content))
	}

	if exists {
		n.logger.Debug("DNS record already up to date", zap.String("domain", domain), zap.String("ip", p.IP))
		return nil
	}

	ttl := n.config.TTL
	if ttl == 0 {
		ttl = 1
	}
	proxied := n.config.Proxied
	_, err = n.api.CreateDNSRecord(ctx, zone, cloudflare.CreateDNSRecordParams{
		Type:    rtype,
		Name:    domain,
		Content: p.IP,
		ZoneID:  zid,
		TTL:     ttl,
		Proxied: &proxied,
		Comment: n.config.Comment,
	})
	if err != nil {
		return fmt.Errorf("error creating DNS record: %w", err)
	}

	n.logger.Info("Created DNS record",
		zap.String("domain", domain),
		zap.String("type", rtype),
		zap.String("content", p.IP))
	return nil
}

// zoneID finds the configured zone, or the longest zone name the domain
// ends with.
func (n *Cloudflare) zoneID(ctx context.Context) (string, error) {
	var names []string
	if n.config.Zone != "" {
		names = append(names, n.config.Zone)
	}

	zones, err := n.api.ListZones(ctx, names...)
	if err != nil {
		return "", fmt.Errorf("error listing zones: %w", err)
	}

	domain := n.config.Domain
	longest, zid := 0, ""
	for _, z := range zones {
		if (domain == z.Name || strings.HasSuffix(domain, "."+z.Name)) && len(z.Name) > longest {
			longest, zid = len(z.Name), z.ID
		}
	}
	if zid == "" {
		return "", fmt.Errorf("unable to find a zone matching %q", domain)
	}
	return zid, nil
}

func recordType(a netip.Addr) string {
	if a.Is4() {
		return "A"
	}
	return "AAAA"
}
