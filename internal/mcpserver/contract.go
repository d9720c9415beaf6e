package mcpserver

// SnapshotFormatContract describes the snapshot artifact for LLM consumers
// reading catalog data through this server.
const SnapshotFormatContract = `# Folio Snapshot Format

The catalog is published as one JSON document, ` + "`" + `data/notion-data.json` + "`" + `, written
atomically by ` + "`" + `folio sync` + "`" + `. Every collection is always present, possibly empty.

## Top level

` + "```" + `json
{
  "projects": [ ... ],
  "about": [ ... ],
  "vault": [ ... ],
  "settings": { "KEY": "value" },
  "lastUpdated": "2024-05-01T12:00:00.000Z"
}
` + "```" + `

## Projects

- ` + "`" + `id` + "`" + ` is ` + "`" + `proj_<number>` + "`" + ` unless the source provides one.
- ` + "`" + `order` + "`" + ` is numeric; lists are shown in ascending order.
- ` + "`" + `status` + "`" + ` is ` + "`" + `LOCKED` + "`" + ` or ` + "`" + `UNLOCKED` + "`" + `. Locked projects need the site password
  before their details and media are shown. This server never returns their media paths.
- ` + "`" + `images` + "`" + ` are site-relative paths such as ` + "`" + `img/projects/ridp/img1.jpg` + "`" + `.
- Colors default to ` + "`" + `#ffffff` + "`" + ` / ` + "`" + `#000000` + "`" + ` when unset.

## About

Entries carry a ` + "`" + `section` + "`" + ` of EXPERIENCE, EDUCATION, CERTIFICATE or RESEARCH,
a ` + "`" + `startDate` + "`" + `, and optional ` + "`" + `endDate` + "`" + ` and ` + "`" + `link` + "`" + `. A missing end date on
EXPERIENCE or EDUCATION means the entry is ongoing.

## Vault

Items are ordered by ` + "`" + `order` + "`" + ` (0 becomes 1). ` + "`" + `id` + "`" + ` defaults to ` + "`" + `va_<order>` + "`" + `.
The vault is gated by the same password as locked projects; this server only reports
how many items it holds.

## Settings

Settings are an open key/value map. Only key names are visible here; values such as
` + "`" + `PASSWORD` + "`" + ` are never returned.
`
