package retailers

// Defaults are the retailers every fresh ledger starts with.
var Defaults = []CreateRetailerInput{
	{Code: "BBY", Name: "Best Buy", RequiresPin: true},
	{Code: "DDR", Name: "Doordash"},
	{Code: "LWS", Name: "Lowe's"},
	{Code: "HDP", Name: "Home Depot", RequiresPin: true},
	{Code: "AMZ", Name: "Amazon"},
}
