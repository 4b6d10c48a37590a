package ledger

import (
	"github.com/munim-pos/munim/internal/tax"
)

// Well-known account codes used by the posting templates. Every tenant's
// chart is seeded with these.
const (
	AccountCash            = "1000"
	AccountBank            = "1020"
	AccountDebtors         = "1100"
	AccountInventory       = "1300"
	AccountInputTaxLocalA  = "1410"
	AccountInputTaxLocalB  = "1420"
	AccountInputTaxInter   = "1430"
	AccountCreditors       = "2000"
	AccountTaxDueLocalA    = "2110"
	AccountTaxDueLocalB    = "2120"
	AccountTaxDueInter     = "2130"
	AccountSales           = "4000"
	AccountSalesReturns    = "4100"
	AccountOtherIncome     = "4800"
	AccountPurchases       = "5000"
	AccountPurchaseReturns = "5100"
	AccountExpenses        = "5800"
	AccountStockAdjustment = "5900"
)

// taxDueAccounts maps tax component names to the liability account credited
// on sales.
var taxDueAccounts = map[string]string{
	tax.ComponentLocalA:     AccountTaxDueLocalA,
	tax.ComponentLocalB:     AccountTaxDueLocalB,
	tax.ComponentInterstate: AccountTaxDueInter,
}

// inputTaxAccounts maps component names to the asset account debited on
// purchases (input tax credit).
var inputTaxAccounts = map[string]string{
	tax.ComponentLocalA:     AccountInputTaxLocalA,
	tax.ComponentLocalB:     AccountInputTaxLocalB,
	tax.ComponentInterstate: AccountInputTaxInter,
}

// SeedAccount describes one chart node for tenant provisioning.
type SeedAccount struct {
	Code       string
	Name       string
	Type       AccountType
	NormalSide Side
}

// DefaultChart returns the accounts every tenant starts with. Contra
// accounts carry an explicit normal side opposite their type's default.
func DefaultChart() []SeedAccount {
	return []SeedAccount{
		{AccountCash, "Cash in Hand", AccountTypeAsset, SideDebit},
		{AccountBank, "Bank", AccountTypeAsset, SideDebit},
		{AccountDebtors, "Sundry Debtors", AccountTypeAsset, SideDebit},
		{AccountInventory, "Inventory", AccountTypeAsset, SideDebit},
		{AccountInputTaxLocalA, "Input Tax Credit (Local A)", AccountTypeAsset, SideDebit},
		{AccountInputTaxLocalB, "Input Tax Credit (Local B)", AccountTypeAsset, SideDebit},
		{AccountInputTaxInter, "Input Tax Credit (Interstate)", AccountTypeAsset, SideDebit},
		{AccountCreditors, "Sundry Creditors", AccountTypeLiability, SideCredit},
		{AccountTaxDueLocalA, "Tax Payable (Local A)", AccountTypeLiability, SideCredit},
		{AccountTaxDueLocalB, "Tax Payable (Local B)", AccountTypeLiability, SideCredit},
		{AccountTaxDueInter, "Tax Payable (Interstate)", AccountTypeLiability, SideCredit},
		{AccountSales, "Sales", AccountTypeRevenue, SideCredit},
		{AccountSalesReturns, "Sales Returns", AccountTypeRevenue, SideDebit},
		{AccountOtherIncome, "Other Income", AccountTypeRevenue, SideCredit},
		{AccountPurchases, "Purchases", AccountTypeExpense, SideDebit},
		{AccountPurchaseReturns, "Purchase Returns", AccountTypeExpense, SideCredit},
		{AccountExpenses, "General Expenses", AccountTypeExpense, SideDebit},
		{AccountStockAdjustment, "Stock Adjustment", AccountTypeExpense, SideDebit},
	}
}
