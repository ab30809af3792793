// Package minutes provides acquisition and extraction of legislative
// session minutes from heterogeneous web sources: a shared municipal CMS
// family, the national parliament portal, and raw PDF documents. Each
// source is normalized into a structured minutes record (title, date,
// full text, per-speaker segments).
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency or concern
// (e.g., rod/, goquery/, pdf/, fs/, scrape/).
package minutes
