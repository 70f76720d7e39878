// Package catalog builds the data behind each screen: the seasonal home
// lists, the weekly schedule, the detail page, and the profile summary.
package catalog
