package widget

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves the embedded widget page. Presentation is best-effort;
// the page talks to /api/chat-proxy the same way the marketing site's
// widget does.
type Handler struct{}

// New creates the widget page handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the page at the site root.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handlePage)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, widgetHTML)
}

var widgetHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Nema</title>
<style>
:root{--card-bg:#faf9f6;--ink:#444;--bubble-bot:#e0e7ef}
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:system-ui,-apple-system,sans-serif;background:#f1efe9;color:var(--ink)}
#launcher{position:fixed;bottom:20px;right:20px;z-index:10002;background:#232323;color:#fff;
  border-radius:32px;border:none;padding:14px 22px;font-weight:700;font-size:17px;
  box-shadow:0 2px 14px rgba(34,34,34,.14);cursor:pointer;display:none}
#panel{background:var(--card-bg);border-radius:18px;box-shadow:0 2px 24px rgba(34,34,34,.07);
  width:100%;max-width:560px;margin:40px auto;min-height:320px;max-height:500px;
  display:flex;flex-direction:column;overflow:hidden}
#header{display:none;background:#232323;color:#fff;padding:13px 0 11px;text-align:center;
  font-weight:800;font-size:19px;position:relative}
#close{position:absolute;right:12px;top:8px;background:none;border:none;color:#fff;
  font-size:26px;font-weight:700;cursor:pointer}
#messages{flex:1;overflow-y:auto;padding:24px 16px 12px;scroll-behavior:smooth}
.row{display:flex;align-items:flex-end;margin-bottom:16px}
.row.user{justify-content:flex-end}
.row .icon{font-size:22px;margin-right:6px}
.bubble{border-radius:18px;padding:10px 18px;font-size:17px;max-width:72vw;
  box-shadow:0 1px 6px rgba(34,34,34,.04);background:var(--bubble-bot);color:var(--ink)}
.row.user .bubble{background:#444;color:#fff}
.thinking span{display:inline-block;width:6px;height:6px;background:#999;border-radius:50%;
  margin-right:3px;animation:b .6s infinite alternate}
.thinking span:nth-child(2){animation-delay:.15s}
.thinking span:nth-child(3){animation-delay:.3s}
@keyframes b{to{transform:translateY(-4px)}}
form{padding:10px 16px 14px;border-top:1px solid #eee;background:var(--card-bg)}
.inputwrap{position:relative;display:flex;align-items:center}
#input{width:100%;border-radius:24px;border:1.5px solid #e0e0e0;font-size:18px;
  padding:12px 90px 12px 18px;background:#fafbfc;outline:none}
#send{position:absolute;right:6px;height:38px;min-width:70px;font-weight:700;font-size:17px;
  border-radius:20px;background:#232323;color:#fff;border:none;cursor:pointer}
#send:disabled{cursor:wait;opacity:.6}
@media(max-width:600px){
  #panel.closed{display:none}
  #launcher.closed{display:block}
  #panel{position:fixed;top:0;left:0;width:100vw;height:100dvh;max-width:none;max-height:none;
    margin:0;border-radius:0}
  #header{display:block}
}
</style>
</head>
<body>
<button id="launcher" class="closed">💬 Chatea con Nema</button>
<div id="panel" class="closed">
  <div id="header">Nema<button id="close">&times;</button></div>
  <div id="messages"></div>
  <form id="form">
    <div class="inputwrap">
      <input id="input" placeholder="Escribe tu mensaje..." maxlength="150" autocomplete="off">
      <button id="send" type="submit">Enviar</button>
    </div>
  </form>
</div>
<script>
const WELCOME='¡Hola! Soy Nema, tu agente IA. Cuéntame qué tarea repetitiva te quita tiempo y te ayudo a automatizarla.';
const FAILURE='Hubo un error al contactar al agente. Intenta más tarde.';
const ACK='Gracias, tu mensaje ha sido recibido.';
function getUserId(){
  let id=localStorage.getItem('nemawashi_user_id');
  if(!id){id=crypto.randomUUID();localStorage.setItem('nemawashi_user_id',id)}
  return id;
}
const userId=getUserId();
const msgsEl=document.getElementById('messages'),
      input=document.getElementById('input'),
      send=document.getElementById('send'),
      form=document.getElementById('form'),
      panel=document.getElementById('panel'),
      launcher=document.getElementById('launcher'),
      closeBtn=document.getElementById('close');
let pending=false;
function addRow(who,text,thinking){
  const row=document.createElement('div');row.className='row '+who;
  if(who==='bot'){const icon=document.createElement('div');icon.className='icon';icon.textContent='🤖';row.appendChild(icon)}
  const bubble=document.createElement('div');bubble.className='bubble';
  if(thinking){bubble.classList.add('thinking');bubble.innerHTML='<span></span><span></span><span></span>'}
  else{bubble.textContent=text}
  row.appendChild(bubble);msgsEl.appendChild(row);
  msgsEl.scrollTop=msgsEl.scrollHeight;
  return row;
}
function extract(data){
  if(data&&typeof data==='object'&&!Array.isArray(data)&&typeof data.raw==='string'&&data.raw)return data.raw;
  if(Array.isArray(data)&&data[0]&&typeof data[0].response==='string'&&data[0].response)return data[0].response;
  if(data&&typeof data.response==='string'&&data.response)return data.response;
  if(typeof data==='string'&&data)return data;
  return ACK;
}
async function submit(){
  const text=input.value.trim();
  if(!text||pending)return;
  addRow('user',text);
  input.value='';
  pending=true;input.disabled=true;send.disabled=true;
  const thinkingRow=addRow('bot','',true);
  try{
    const res=await fetch('/api/chat-proxy',{method:'POST',
      headers:{'Content-Type':'application/json'},
      body:JSON.stringify({message:text,userId})});
    if(!res.ok)throw new Error(res.status);
    const data=await res.json();
    thinkingRow.remove();
    addRow('bot',extract(data));
  }catch(e){
    thinkingRow.remove();
    addRow('bot',FAILURE);
  }
  pending=false;input.disabled=false;send.disabled=false;
  input.focus();
}
form.onsubmit=e=>{e.preventDefault();submit()};
launcher.onclick=()=>{panel.classList.remove('closed');launcher.classList.remove('closed');
  launcher.style.display='none';msgsEl.scrollTop=msgsEl.scrollHeight;input.focus()};
closeBtn.onclick=()=>{panel.classList.add('closed');launcher.classList.add('closed');
  launcher.style.display=''};
addRow('bot',WELCOME);
</script>
</body>
</html>`
