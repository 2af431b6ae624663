// Package scraper ties the site components together.
//
// DownloadGallery resolves one gallery and hands it to the page downloader.
// DownloadQuery runs a search: when the site redirects the search straight
// to a gallery only that gallery is downloaded, otherwise the selected range
// of results pages is walked and every gallery listed on them is downloaded.
//
// Galleries of a results page are processed in listing order, at most
// download.concurrent_galleries at a time. Failures of a single gallery or
// results page are logged and do not stop the run.
package scraper
