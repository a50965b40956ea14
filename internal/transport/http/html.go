package httpserver

// indexHTML is the single page served at /. The script talks to /submit and
// /visualize and patches the DOM with whatever comes back.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Smart Energy Tracker</title>
    <style>
        body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
        form { margin-bottom: 1rem; }
        #message { min-height: 1.5rem; color: #333; }
        #visualization img { max-width: 100%; }
    </style>
</head>
<body>
    <h1>Smart Energy Tracker</h1>
    <form id="usageForm">
        <label for="usage">Enter energy usage (kWh):</label>
        <input type="text" id="usage" name="usage" required>
        <button type="submit">Submit</button>
    </form>
    <div id="message"></div>
    <h2>Energy Usage Visualization</h2>
    <button id="visualizeBtn">Show Visualization</button>
    <div id="visualization"></div>

    <script>
        document.getElementById('usageForm').onsubmit = function (event) {
            event.preventDefault();
            const usage = document.getElementById('usage').value;
            fetch('/submit', {
                method: 'POST',
                headers: { 'Content-Type': 'application/x-www-form-urlencoded' },
                body: new URLSearchParams({ usage: usage })
            })
            .then(response => response.json())
            .then(data => {
                document.getElementById('message').innerText = data.message;
            })
            .catch(() => {
                document.getElementById('message').innerText = 'Request failed.';
            });
        };

        document.getElementById('visualizeBtn').onclick = function () {
            fetch('/visualize')
            .then(response => response.json())
            .then(data => {
                const target = document.getElementById('visualization');
                if (data.status === 'success') {
                    // Cache-buster: the image path is fixed and overwritten per render.
                    const img = document.createElement('img');
                    img.src = data.image_path + '?t=' + Date.now();
                    img.alt = 'Energy Usage Plot';
                    target.replaceChildren(img);
                } else {
                    target.innerText = data.message;
                }
            })
            .catch(() => {
                document.getElementById('visualization').innerText = 'Request failed.';
            });
        };
    </script>
</body>
</html>
`
