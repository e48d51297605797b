package web

const pageTemplate = `<!DOCTYPE html>
<html><head>
    <title>Environmental Monitor</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width,initial-scale=1">
    <meta http-equiv="refresh" content="30">
    <style>
        body{font-family:Arial;margin:0;background:#f5f5f5;}
        .header{background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);color:white;padding:20px;text-align:center;}
        .container{max-width:1000px;margin:0 auto;padding:20px;}
        .banner{padding:12px;margin:15px 0;border-radius:6px;font-weight:bold;text-align:center;}
        .banner-ok{background:#d4edda;color:#155724;}
        .banner-alert{background:#f8d7da;color:#721c24;}
        .cards{display:grid;grid-template-columns:repeat(auto-fit,minmax(240px,1fr));gap:15px;margin:20px 0;}
        .card{background:white;border-radius:8px;padding:15px;box-shadow:0 2px 4px rgba(0,0,0,0.1);border-left:4px solid #007bff;}
        .card.temp{border-left-color:#dc3545;}
        .card.humidity{border-left-color:#28a745;}
        .card.vpd{border-left-color:#6f42c1;}
        .value{font-size:2em;font-weight:bold;margin:5px 0;}
        .subtitle{color:#666;font-size:0.9em;}
        .minmax{font-size:0.85em;color:#888;margin:3px 0;}
        .vpd-band{padding:8px;border-radius:4px;margin:8px 0;text-align:center;font-weight:bold;color:white;}
        .section{background:white;border-radius:8px;padding:15px;margin:15px 0;box-shadow:0 2px 4px rgba(0,0,0,0.1);}
        .form-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(160px,1fr));gap:12px;margin:12px 0;}
        .form-group{display:flex;flex-direction:column;}
        .form-group label{font-weight:bold;margin-bottom:4px;font-size:0.9em;}
        .form-group input,.form-group select{padding:6px;border:1px solid #ddd;border-radius:4px;}
        .btn{background:#007bff;color:white;border:none;padding:8px 15px;border-radius:4px;margin:3px;cursor:pointer;}
        .btn-warn{background:#ffc107;color:#212529;}
        .btn-danger{background:#dc3545;}
        .stats{display:grid;grid-template-columns:repeat(auto-fit,minmax(110px,1fr));gap:8px;margin:10px 0;}
        .stat{text-align:center;padding:10px;background:#f8f9fa;border-radius:4px;}
        .stat-val{font-size:1.2em;font-weight:bold;}
        .stat-label{color:#666;font-size:0.8em;}
        .log-entry{background:#f8f9fa;padding:8px;margin:4px 0;border-radius:4px;border-left:3px solid #dc3545;font-size:0.9em;}
    </style>
</head>
<body>
    <div class="header">
        <h1>Environmental Monitor</h1>
        <p>Temperature &middot; Humidity &middot; Vapor-Pressure Deficit</p>
    </div>

    <div class="container">
        {{if .Alerts}}<div class="banner banner-alert">ALERT: {{len .Alerts}} active</div>
        {{else}}<div class="banner banner-ok">All systems normal</div>{{end}}

        <div class="cards">
            <div class="card temp">
                <h3>TEMPERATURE</h3>
                <div class="value">{{f1 .Reading.Temperature}}&deg;C</div>
                <div class="subtitle">{{f1 .Reading.TempF}}&deg;F</div>
                <div class="minmax">Session: {{stat1 .Session.Temperature.Min}} &ndash; {{stat1 .Session.Temperature.Max}}&deg;C</div>
                <div class="minmax">All-time: {{stat1 .AllTime.Temperature.Min}} &ndash; {{stat1 .AllTime.Temperature.Max}}&deg;C</div>
                <div class="minmax">Average: {{f1 .Averages.Temperature}}&deg;C</div>
            </div>

            <div class="card humidity">
                <h3>HUMIDITY</h3>
                <div class="value">{{f1 .Reading.Humidity}}%</div>
                <div class="subtitle">Relative Humidity</div>
                <div class="minmax">Session: {{stat1 .Session.Humidity.Min}} &ndash; {{stat1 .Session.Humidity.Max}}%</div>
                <div class="minmax">All-time: {{stat1 .AllTime.Humidity.Min}} &ndash; {{stat1 .AllTime.Humidity.Max}}%</div>
                <div class="minmax">Average: {{f1 .Averages.Humidity}}%</div>
            </div>

            <div class="card vpd">
                <h3>VPD</h3>
                <div class="value">{{f2 .Reading.VPD}} kPa</div>
                {{with vpdStatus .Reading.VPD}}<div class="vpd-band" style="background-color:{{.Color}};">{{.Status}}</div>
                <div class="subtitle">{{.Advice}}</div>{{end}}
                <div class="minmax">Session: {{stat2 .Session.VPD.Min}} &ndash; {{stat2 .Session.VPD.Max}} kPa</div>
            </div>
        </div>

        {{if .Alerts}}<div class="section"><h3>Active Alerts</h3>
        {{range .Alerts}}<div class="log-entry"><strong>{{.Channel}} {{.Severity}}:</strong> {{.Message}}</div>
        {{end}}</div>{{end}}

        <div class="section">
            <h3>Alarm Thresholds</h3>
            <form method="post">
                <div class="form-grid">
                    <div class="form-group"><label>Temp Min (&deg;C)</label>
                        <input type="number" name="temp_min" value="{{g .Thresholds.TempMin}}" step="0.1"></div>
                    <div class="form-group"><label>Temp Max (&deg;C)</label>
                        <input type="number" name="temp_max" value="{{g .Thresholds.TempMax}}" step="0.1"></div>
                    <div class="form-group"><label>Humidity Min (%)</label>
                        <input type="number" name="humidity_min" value="{{g .Thresholds.HumidityMin}}" step="1"></div>
                    <div class="form-group"><label>Humidity Max (%)</label>
                        <input type="number" name="humidity_max" value="{{g .Thresholds.HumidityMax}}" step="1"></div>
                    <div class="form-group"><label>VPD Min (kPa)</label>
                        <input type="number" name="vpd_min" value="{{g .Thresholds.VPDMin}}" step="0.01"></div>
                    <div class="form-group"><label>VPD Max (kPa)</label>
                        <input type="number" name="vpd_max" value="{{g .Thresholds.VPDMax}}" step="0.01"></div>
                </div>
                <button type="submit" class="btn">Update Thresholds</button>
            </form>
        </div>

        <div class="section">
            <h3>Email Alerts: {{if .EmailEnabled}}ON{{else}}OFF{{end}}</h3>
            <form method="post">
                <div class="form-grid">
                    <div class="form-group"><label>Username</label>
                        <input type="email" name="email_username" value="{{.EmailUsername}}" placeholder="your.email@gmail.com"></div>
                    <div class="form-group"><label>App Password</label>
                        <input type="password" name="email_password" placeholder="App Password"></div>
                    <div class="form-group"><label>Recipient</label>
                        <input type="email" name="email_to" value="{{.EmailTo}}" placeholder="recipient@example.com"></div>
                    <div class="form-group"><label>Cooldown (minutes)</label>
                        <input type="number" name="email_cooldown" value="{{cooldownMinutes .EmailCooldown}}" min="1" max="60"></div>
                    <div class="form-group"><label>Enabled</label>
                        <select name="email_enabled">
                            <option value="on"{{if .EmailEnabled}} selected{{end}}>Enabled</option>
                            <option value="off"{{if not .EmailEnabled}} selected{{end}}>Disabled</option>
                        </select></div>
                </div>
                <button type="submit" class="btn">Save Email Settings</button>
                <button type="submit" name="action" value="test_email" class="btn btn-warn">Send Test Email</button>
            </form>
        </div>

        <div class="section">
            <h3>System</h3>
            <form method="post" style="display:inline;">
                <button type="submit" name="action" value="clear_logs" class="btn btn-warn">Clear Alert Logs</button>
            </form>
            <form method="post" style="display:inline;">
                <button type="submit" name="action" value="reset_stats" class="btn btn-warn">Reset Session Stats</button>
            </form>
            <form method="post" style="display:inline;">
                <button type="submit" name="action" value="restart" class="btn btn-danger">Restart Device</button>
            </form>
        </div>

        {{if .LogTail}}<div class="section"><h3>Recent Alert History ({{.LogTotal}} total)</h3>
        {{range .LogTail}}{{if .Alerts}}<div class="log-entry"><strong>{{.TimeStr}}:</strong> {{(index .Alerts 0).Message}}</div>
        {{end}}{{end}}</div>{{end}}

        <div class="section">
            <div class="stats">
                <div class="stat"><div class="stat-val">{{.ReadingCount}}</div><div class="stat-label">Readings</div></div>
                <div class="stat"><div class="stat-val">{{.SensorErrors}}</div><div class="stat-label">Sensor Errors</div></div>
                <div class="stat"><div class="stat-val">{{.RequestCount}}</div><div class="stat-label">Requests</div></div>
                <div class="stat"><div class="stat-val">{{.BytesSent}}</div><div class="stat-label">Bytes Sent</div></div>
                <div class="stat"><div class="stat-val">{{uptimeHours .Uptime}}</div><div class="stat-label">Uptime</div></div>
            </div>
            <div class="subtitle">
                <strong>Device:</strong> {{.DeviceID}} |
                <strong>Alarms:</strong> {{if .AlarmsEnabled}}enabled{{else}}disabled{{end}} |
                <strong>Last reading:</strong> {{.Reading.TimeStr}}
            </div>
        </div>
    </div>
</body>
</html>
`
