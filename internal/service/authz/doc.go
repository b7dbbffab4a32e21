// Package authz is the authorization core of the content backend.
//
// A handler asks the DecisionService before mutating anything and, for
// publishable content, asks the PublishGovernor which status to persist:
//
//	catalog := authz.MustLoadCatalog()
//	engine := authz.NewEngine(catalog)
//	decisions := authz.NewDecisionService(engine, identities, ownership, opts, logger)
//
//	d, err := decisions.CheckWithOwnership(ctx, identity, models.ResourceArticles, models.ActionUpdate, loc)
//	if err != nil { ... }          // store failure, retryable
//	if err := d.Err(); err != nil { ... } // 403 with d.Reason
//
//	status := authz.NewPublishGovernor(engine).ResolveStatus(identity.RoleClaim, models.ResourceArticles, req.Status)
//
// Every indeterminate input (unknown role, undefined action, unresolved identity,
// missing owner) resolves to a denial.
package authz
