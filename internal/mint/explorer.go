package mint

import (
	"net/url"
	"strings"

	"mintwatch/internal/config"
)

const explorerBase = "https://explorer.solana.com"

// ExplorerURLs returns the block explorer links for a transaction and a mint
// address on cluster. Mainnet links carry no cluster parameter.
func ExplorerURLs(cluster, signature, mintAddress string) (txURL, mintURL string) {
	suffix := ""
	cluster = strings.TrimSpace(cluster)
	if cluster != "" && cluster != config.ClusterMainnet {
		suffix = "?cluster=" + url.QueryEscape(cluster)
	}
	txURL = explorerBase + "/tx/" + url.PathEscape(signature) + suffix
	mintURL = explorerBase + "/address/" + url.PathEscape(mintAddress) + suffix
	return txURL, mintURL
}
