// Package keyvault purges soft-deleted Azure Key Vaults.
//
// A destroyed vault stays soft-deleted and keeps its globally unique name
// reserved, so a stack that is destroyed and deployed again under the same
// name would fail to recreate its vault. [Purger] satisfies
// stack.VaultPurger.
package keyvault
