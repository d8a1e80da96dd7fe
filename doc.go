// Package custlist reconciles customer contact rows collected across repeated
// imports into one deduplicated master list.
//
// A run reads an input workbook, normalizes its rows into one aggregate per
// person, reconciles the aggregates against the persisted master and writes
// the new master together with a flat per-URL export:
//
//	summary, err := custlist.Run(ctx, "input/Event_2026-03.xlsx",
//		custlist.WithSettingsFile("settings.yaml"),
//	)
//	if err != nil {
//		return err
//	}
//	fmt.Println(summary.Reconcile.Created, "new customers")
//
// Runs against the same master must not overlap. Nothing in this package
// locks the store; serializing runs is the caller's responsibility.
package custlist
