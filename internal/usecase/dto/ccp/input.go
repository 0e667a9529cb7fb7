package ccpdto

type ReportFailureInput struct {
	MenuItemIDs []string
	Reason      string
	Actor       string
	Metadata    map[string]string
}

type ResolveFailureInput struct {
	RecordID string
	Actor    string
}
