package model

// VaultBalance is the derived balance picture for one account. It is never
// stored; it is recomputed from ledger reads plus a scan of the account's
// active agreements. Amounts are base-unit integer strings.
type VaultBalance struct {
	Personal            string  `json:"personal"`
	SharedTotal         string  `json:"sharedTotal"`
	SharedAvailable     string  `json:"sharedAvailable"`
	MyContribution      string  `json:"myContribution"`
	PartnerContribution string  `json:"partnerContribution"`
	EscrowLocked        string  `json:"escrowLocked"`
	MySharePercent      float64 `json:"mySharePercent"`
	PartnerSharePercent float64 `json:"partnerSharePercent"`
}
