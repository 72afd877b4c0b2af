package entities

// InterfaceStatusRow is one interface line of a status table.
// Only the leading identifier is kept; the remaining columns are ignored.
type InterfaceStatusRow struct {
	Interface string
}
