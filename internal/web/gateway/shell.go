package gateway

// shellHTML is the page every frontend route is served with; the client
// bundle takes over routing from there.
const shellHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="request-id" content="{{.RequestID}}">
<title>Microblog</title>
<link rel="stylesheet" href="/assets/app.css">
</head>
<body>
<div id="root" data-page="{{.Page}}"></div>
<script type="module" src="/assets/app.js"></script>
</body>
</html>
`
