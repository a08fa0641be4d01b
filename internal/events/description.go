package events

const SearchEventsDescription = `
Search Check Point Infinity security event logs using natural language queries.

The query is translated into an Infinity Events filter expression, the search runs asynchronously on the Infinity side, and all result pages are collected before the tool returns.

Parameters:
- query: (Required) Natural language query, e.g. "critical security events on Harmony SASE" or "high severity events from src 10.0.0.5".
- timeframe: (Optional) Time period, e.g. "last 24 hours", "7 days", "2 weeks". Defaults to the last 24 hours.
- accounts: (Optional) Account IDs to scope the search to.
- save_locally: (Optional) Write the full result set to a gzip-compressed JSON file instead of returning every record inline; the response then carries the filename and a small record sample.
- base_url, client_id, access_key: (Optional) Per-call connection overrides; default to the server configuration (e.g. base_url https://cloudinfra-gw.portal.checkpoint.com).

Query translation rules:
- Recognized product names (Harmony SASE/Connect/Endpoint/Mobile/Email/Browse, Quantum Smart-1 Cloud, Quantum Spark) become an app-name filter clause.
- Severity words map to severity clauses; "critical" and "high" together become an OR group. Only one severity clause is emitted per query.
- "src"/"source" and "dst"/"dest"/"destination" followed by an IPv4 address become source/destination clauses.
- Queries asking for "all events" skip severity and IP extraction and only keep the product clause.

Response contains the aggregated records (or file reference), the resolved filter and absolute time window, and report metadata: severity tallies, top sources and products, chart suggestions, and a compliance score.

On failure the response carries success:false with a machine-readable error kind (credentials_missing, auth_failed, transport_error, rate_limited, search_request_failed, task_failed, unknown_task_state, timeout, retrieval_failed) and a human-readable message. A rate_limited error means the Infinity API returned 429; wait and resubmit, the server does not retry on your behalf.
`

const TranslateQueryDescription = `
Preview how a natural language security query would be translated, without running a search.

Parameters:
- query: (Required) Natural language query to translate.
- timeframe: (Optional) Time period text to resolve into an absolute window. Defaults to the last 24 hours.

Response contains the matched product name, the Infinity Events filter expression, and the absolute UTC time window that a search with these inputs would use. No network calls are made and no credentials are required.
`
