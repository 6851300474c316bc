package csv

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"
