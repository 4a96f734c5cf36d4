// internal/config/template.go
package config

// GenerateTemplate returns a starter configuration file with every
// section spelled out. The API key comes from the environment so the
// file can be committed.
func GenerateTemplate() string {
	return `# KOLMetrics pipeline configuration

input:
  file: kol_links.xlsx       # weekly link sheet (.xlsx or .csv)
  charset: utf-8             # csv encoding: utf-8, gbk, gb18030, big5, latin1

youtube:
  api_key: "${YOUTUBE_API_KEY}"   # optional; empty disables the batch API path
  batch_size: 50

fetch:
  timeout: 15s
  max_retries: 2
  rate_limit: 1.0            # requests per second
  rate_burst: 5

browser:
  enabled: false             # headless Chrome for JS-heavy pages
  timeout: 30s
  wait_delay: 2s

storage:
  backend: sqlite            # sqlite, postgres, mysql, mongodb, memory
  dsn: kol_results.sqlite3
  table: results

output:
  format: csv                # csv, json, xlsx
  file: kol_results.csv

server:
  listen: ":8080"

metrics:
  enabled: true
  namespace: kolmetrics
`
}
