// Package core provides the file pipeline behind the data sweeper.
//
// This package holds all domain logic independent of any UI or transport
// layer. The web server and the sweep command both drive it through the same
// explicit calls, so it can be exercised from tests without either frontend.
//
// # Pipeline
//
// Each uploaded file goes through a straight-line sequence:
//
//  1. [Parse] turns CSV or Excel bytes into a [Table]
//  2. [Clean] applies the selected [CleaningOptions] (dedupe, fill, drop)
//  3. [Select] restricts the table to a [ColumnSelection]
//  4. [Chart] optionally builds a bar [ChartSpec] over numeric columns
//  5. [Export] serializes the table into an [ExportArtifact]
//
// [Bundle] packs several artifacts into one ZIP archive. [Process] runs steps
// 1-5 for a single file and reports the outcome as a [FileResult].
//
// # Sessions
//
// Uploaded files and the results of the last conversion live on a [Session],
// an explicit session-scoped object kept in a [SessionStore]. The [Service]
// exposes the two user interactions:
//
//	sess, err := svc.OnUpload(ctx, files)
//	res, err := svc.OnConvert(ctx, sess.ID, ConvertRequest{Files: configs, Bundle: true})
//
// Files in one conversion are processed sequentially. A failure on one file is
// recorded on its [FileResult] and never stops the others.
//
// # Error Handling
//
// Pipeline failures are typed: [ParseError], [UnknownColumnError],
// [NoNumericColumnError] and [SerializationError]. Technical errors are mapped
// to user-friendly messages with support codes using [MapError]:
//
//   - FILE001-FILE006: File errors (size, format, structure)
//   - COL001, CHART001, EXP001: Pipeline step errors
//   - SES001, UPL002-UPL005: Session and request errors
package core
